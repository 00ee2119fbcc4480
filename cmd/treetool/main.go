package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treetool/internal/config"
	"treetool/internal/logging"
	"treetool/internal/tree"
)

var (
	cfgPath  string
	logLevel string
	quiet    bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "treetool",
	Short: "Content-digest indexes of directory trees",
	Long: `Treetool scans directory trees, fingerprints every regular file and
works with the resulting indexes: listing, duplicate detection,
confirmation of fast-mode matches, snapshots and change watching.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logger, err = logging.New(level, quiet)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".treetool.json", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "silence all log output")
}

// newScanner builds a Scanner from the loaded config plus the
// per-command fast flag.
func newScanner(fast bool) *tree.Scanner {
	return &tree.Scanner{
		Fast:    fast,
		Workers: cfg.Workers,
		Exclude: cfg.Exclude,
		Logger:  logger,
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
