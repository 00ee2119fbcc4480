package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treetool/internal/cliio"
	"treetool/internal/tree"
)

func init() {
	dupesCmd := &cobra.Command{
		Use:   "dupes",
		Short: "Work with the duplicate files recorded in an index",
	}

	findCmd := &cobra.Command{
		Use:   "find [needle] [haystack] [output]",
		Short: "Find entries of one index that also appear in another",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			nr, err := cliio.Reader(arg(args, 0))
			if err != nil {
				return err
			}
			defer nr.Close()
			needle, err := tree.Parse(nr, false)
			if err != nil {
				return err
			}

			hr, err := cliio.Reader(arg(args, 1))
			if err != nil {
				return err
			}
			defer hr.Close()
			haystack, err := tree.Parse(hr, true)
			if err != nil {
				return err
			}

			logger.Debug("searching haystack",
				zap.Int("needles", len(needle)),
				zap.Int("haystack", len(haystack)),
				zap.Int("haystack_dupes", haystack.CountDupes()))

			w, err := cliio.Writer(arg(args, 2))
			if err != nil {
				return err
			}
			defer w.Close()
			return needle.FindIn(haystack).WriteTo(w)
		},
	}
	dupesCmd.AddCommand(findCmd)

	listDirsCmd := &cobra.Command{
		Use:   "listdirs [input] [output]",
		Short: "List every directory containing a recorded dupe",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			di, err := parseWithDupes(arg(args, 0))
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()
			for _, dir := range di.DupeDirs() {
				if _, err := fmt.Fprintln(w, dir); err != nil {
					return err
				}
			}
			return nil
		},
	}
	dupesCmd.AddCommand(listDirsCmd)

	sizeCmd := &cobra.Command{
		Use:   "size [input] [output]",
		Short: "Report the storage that de-duplicating would reclaim",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			di, err := parseWithDupes(arg(args, 0))
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()
			_, err = fmt.Fprintf(w, "Total saved %s\n", formatBytes(di.SavedBytes()))
			return err
		},
	}
	dupesCmd.AddCommand(sizeCmd)

	var copyDryRun bool
	copyCmd := &cobra.Command{
		Use:   "copy <dest> [input] [output]",
		Short: "Copy every recorded dupe into one directory, named by digest",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			di, err := parseWithDupes(arg(args, 1))
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 2))
			if err != nil {
				return err
			}
			defer w.Close()

			dest := args[0]
			for _, d := range di.Digests() {
				set := di[d]
				for _, dupe := range set.Dupes {
					src := filepath.FromSlash(dupe)
					target := filepath.Join(dest, d)
					if ext := filepath.Ext(src); ext != "" {
						target += ext
					}
					if _, err := fmt.Fprintf(w, "cp %s %s\n", src, target); err != nil {
						return err
					}
					if copyDryRun {
						continue
					}
					if err := copyFile(src, target); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	copyCmd.Flags().BoolVar(&copyDryRun, "dry-run", false, "log what would be copied without copying")
	dupesCmd.AddCommand(copyCmd)

	var deleteDryRun bool
	deleteCmd := &cobra.Command{
		Use:   "delete [input] [output]",
		Short: "Delete every recorded dupe, keeping the primary files",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			di, err := parseWithDupes(arg(args, 0))
			if err != nil {
				return err
			}

			w, err := cliio.Writer(arg(args, 1))
			if err != nil {
				return err
			}
			defer w.Close()

			for _, d := range di.Digests() {
				for _, dupe := range di[d].Dupes {
					path := filepath.FromSlash(dupe)
					if _, err := fmt.Fprintf(w, "rm %s\n", path); err != nil {
						return err
					}
					if deleteDryRun {
						continue
					}
					if err := os.Remove(path); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&deleteDryRun, "dry-run", false, "log what would be deleted without deleting")
	dupesCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(dupesCmd)
}

func parseWithDupes(input string) (tree.DigestIndex, error) {
	r, err := cliio.Reader(input)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	di, err := tree.Parse(r, true)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded index",
		zap.String("input", cliio.ReaderName(input)),
		zap.Int("entries", len(di)),
		zap.Int("dupes", di.CountDupes()))
	return di, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%d GB", n>>30)
	case n >= 1<<20:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
