package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treetool/internal/cliio"
	"treetool/internal/store"
	"treetool/internal/tree"
	"treetool/internal/watch"
)

func init() {
	var dbPath string

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, load and manage scan snapshots",
	}
	snapshotCmd.PersistentFlags().StringVar(&dbPath, "db", "", "snapshot database directory (default from config)")

	openStore := func() (*store.Store, error) {
		dir := dbPath
		if dir == "" {
			dir = cfg.SnapshotDB
		}
		return store.Open(dir, logger)
	}

	var saveFast bool
	saveCmd := &cobra.Command{
		Use:   "save [root]",
		Short: "Scan a tree and save the snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := cliio.Dir(arg(args, 0))
			if err != nil {
				return err
			}

			idx, err := newScanner(saveFast).Scan(root)
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.Save(root, idx)
			if err != nil {
				return err
			}
			fmt.Printf("Saved snapshot %s (%d files, %s)\n",
				color.GreenString(snap.ID), snap.Files, formatBytes(snap.TotalSize))
			return nil
		},
	}
	saveCmd.Flags().BoolVar(&saveFast, "fast", false, "fast digests (first and last chunk only)")
	snapshotCmd.AddCommand(saveCmd)

	loadCmd := &cobra.Command{
		Use:   "load <id> [output]",
		Short: "Write a saved snapshot in the index text format",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			idx, err := s.Load(args[0])
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
	snapshotCmd.AddCommand(loadCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			snaps, err := s.List()
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Println("No snapshots saved.")
				return nil
			}
			for _, snap := range snaps {
				fmt.Printf("%s  %s  %6d files  %10s  %s\n",
					color.CyanString(snap.ID),
					snap.CreatedAt.Local().Format(time.DateTime),
					snap.Files,
					formatBytes(snap.TotalSize),
					snap.Root)
			}
			return nil
		},
	}
	snapshotCmd.AddCommand(listCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted snapshot %s\n", args[0])
			return nil
		},
	}
	snapshotCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(snapshotCmd)

	var watchDebounce time.Duration
	var watchFast bool
	watchCmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Re-scan a tree whenever it changes and report the differences",
		Long: `Scans the root, then watches it for filesystem events. After a quiet
period each burst of changes triggers a full re-scan; the new snapshot is
compared with the previous one and the differences are printed. Interrupt
with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := cliio.Dir(arg(args, 0))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watch.New(newScanner(watchFast), root,
				watch.WithDebounce(watchDebounce),
				watch.WithLogger(logger))

			err = w.Run(ctx, func(old, current tree.Index, changes *tree.Changes) {
				if old == nil {
					fmt.Printf("Watching %s (%d files)\n", root, len(current))
					return
				}
				for _, c := range changes.Added {
					fmt.Printf("%s %s\n", color.GreenString("+"), c.Path)
				}
				for _, c := range changes.Modified {
					fmt.Printf("%s %s\n", color.YellowString("~"), c.Path)
				}
				for _, c := range changes.Deleted {
					fmt.Printf("%s %s\n", color.RedString("-"), c.Path)
				}
				logger.Info("tree changed",
					zap.Int("added", len(changes.Added)),
					zap.Int("modified", len(changes.Modified)),
					zap.Int("deleted", len(changes.Deleted)),
					zap.Int("files", len(current)))
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", time.Second, "quiet period before re-scanning")
	watchCmd.Flags().BoolVar(&watchFast, "fast", false, "fast digests (first and last chunk only)")
	rootCmd.AddCommand(watchCmd)
}
