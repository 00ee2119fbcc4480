// Package watch re-scans a tree when its contents change. Every scan
// produces a complete fresh snapshot; nothing is patched in place.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"treetool/internal/tree"
)

// Func receives the previous and the freshly built snapshot together
// with their difference.
type Func func(old, current tree.Index, changes *tree.Changes)

// Watcher rebuilds snapshots of one root on filesystem events, with a
// quiet period so bursts of writes coalesce into a single re-scan.
type Watcher struct {
	scanner  *tree.Scanner
	root     string
	debounce time.Duration
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period between the last event and the
// re-scan. The default is one second.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New creates a Watcher over root using scanner for every rebuild.
func New(scanner *tree.Scanner, root string, opts ...Option) *Watcher {
	w := &Watcher{
		scanner:  scanner,
		root:     root,
		debounce: time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run scans once, then blocks rebuilding snapshots until ctx is done.
// fn is called for the initial snapshot (with a nil old Index) and after
// every rebuild that happened because of events. A failed rebuild keeps
// the previous snapshot and is logged, not fatal: the tree may simply be
// mid-write.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	current, err := w.scanner.Scan(w.root)
	if err != nil {
		return err
	}
	fn(nil, current, tree.Diff(nil, current))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.watchDirs(fsw); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.logger.Debug("filesystem event",
				zap.String("op", event.Op.String()),
				zap.String("path", event.Name))

			// New directories need their own watch before the re-scan.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						w.logger.Warn("watching new directory",
							zap.String("path", event.Name),
							zap.Error(err))
					}
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			timer, fire = nil, nil

			next, err := w.scanner.Scan(w.root)
			if err != nil {
				w.logger.Warn("rescan failed, keeping previous snapshot",
					zap.String("root", w.root),
					zap.Error(err))
				continue
			}
			if err := w.watchDirs(fsw); err != nil {
				w.logger.Warn("refreshing watches", zap.Error(err))
			}

			changes := tree.Diff(current, next)
			if changes.Empty() {
				continue
			}
			old := current
			current = next
			fn(old, current, changes)
		}
	}
}

// watchDirs registers the root and every subdirectory. Symlinked
// directories are skipped to mirror the scanner's traversal policy.
func (w *Watcher) watchDirs(fsw *fsnotify.Watcher) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
}
