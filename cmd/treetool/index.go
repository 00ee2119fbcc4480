package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treetool/internal/cliio"
	"treetool/internal/tree"
)

func init() {
	var listFast bool
	listCmd := &cobra.Command{
		Use:   "list [root] [output]",
		Short: "Scan a tree and emit digest, size and path per file",
		Long: `Recursively scans the root (default: current directory) and writes one
"digest size path" line per regular file, sorted by path. Output goes to
the named file, or stdout when omitted.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := cliio.Dir(arg(args, 0))
			if err != nil {
				return err
			}
			logger.Debug("listing tree",
				zap.String("root", cliio.DirName(arg(args, 0))),
				zap.String("output", cliio.WriterName(arg(args, 1))))

			idx, err := newScanner(listFast).Scan(root)
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()
			return tree.WriteIndexTo(w, idx)
		},
	}
	listCmd.Flags().BoolVar(&listFast, "fast", false, "fast digests (first and last chunk only)")
	rootCmd.AddCommand(listCmd)

	var indexDupes, indexFast bool
	indexCmd := &cobra.Command{
		Use:   "index [root] [output]",
		Short: "Scan a tree and emit a digest index, optionally with dupes",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := cliio.Dir(arg(args, 0))
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			logger.Debug("indexing tree",
				zap.String("root", cliio.DirName(arg(args, 0))),
				zap.String("output", cliio.WriterName(arg(args, 1))))

			idx, err := newScanner(indexFast).Scan(abs)
			if err != nil {
				return err
			}
			di := tree.FromIndex(idx, abs, indexDupes)

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()
			return di.WriteTo(w)
		},
	}
	indexCmd.Flags().BoolVar(&indexDupes, "dupes", false, "record duplicate paths per digest")
	indexCmd.Flags().BoolVar(&indexFast, "fast", false, "fast digests (first and last chunk only)")
	rootCmd.AddCommand(indexCmd)

	var matchFast bool
	matchCmd := &cobra.Command{
		Use:   "match <root> [input] [output]",
		Short: "Find files in a tree that duplicate entries of an index",
		Long: `Reads an index (from the named file, or stdin), scans the root and
records every file whose digest already appears in the index as a dupe
of that entry. Files larger than the largest indexed file are skipped
without hashing.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Debug("matching tree against index",
				zap.String("root", args[0]),
				zap.String("input", cliio.ReaderName(arg(args, 1))),
				zap.String("output", cliio.WriterName(arg(args, 2))))

			r, err := cliio.Reader(arg(args, 1))
			if err != nil {
				return err
			}
			defer r.Close()

			di, err := tree.Parse(r, false)
			if err != nil {
				return err
			}
			if err := di.Match(newScanner(matchFast), args[0]); err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 2))
			if err != nil {
				return err
			}
			defer w.Close()
			return di.WriteTo(w)
		},
	}
	matchCmd.Flags().BoolVar(&matchFast, "fast", false, "fast digests (first and last chunk only)")
	rootCmd.AddCommand(matchCmd)

	confirmCmd := &cobra.Command{
		Use:   "confirm [input] [output]",
		Short: "Re-digest an index fully and keep only true dupes",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Debug("confirming index",
				zap.String("input", cliio.ReaderName(arg(args, 0))),
				zap.String("output", cliio.WriterName(arg(args, 1))))

			r, err := cliio.Reader(arg(args, 0))
			if err != nil {
				return err
			}
			defer r.Close()

			di, err := tree.Parse(r, true)
			if err != nil {
				return err
			}
			confirmed, err := di.Confirm(logger)
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()
			return confirmed.WriteTo(w)
		},
	}
	rootCmd.AddCommand(confirmCmd)

	zeroesCmd := &cobra.Command{
		Use:   "zeroes [input] [output]",
		Short: "Drop zero-length entries from an index",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cliio.Reader(arg(args, 0))
			if err != nil {
				return err
			}
			defer r.Close()

			di, err := tree.Parse(r, true)
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()
			return di.DropZero().WriteTo(w)
		},
	}
	rootCmd.AddCommand(zeroesCmd)
}
