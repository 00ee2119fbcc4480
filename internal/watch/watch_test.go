package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treetool/internal/tree"
)

type update struct {
	old     tree.Index
	current tree.Index
	changes *tree.Changes
}

func runWatcher(t *testing.T, root string) (<-chan update, context.CancelFunc) {
	t.Helper()

	updates := make(chan update, 16)
	ctx, cancel := context.WithCancel(context.Background())

	var s tree.Scanner
	w := New(&s, root, WithDebounce(50*time.Millisecond))

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := w.Run(ctx, func(old, current tree.Index, changes *tree.Changes) {
			updates <- update{old: old, current: current, changes: changes}
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return updates, cancel
}

func waitUpdate(t *testing.T, updates <-chan update) update {
	t.Helper()
	select {
	case u := <-updates:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot update")
		return update{}
	}
}

func TestRunInitialSnapshot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	updates, _ := runWatcher(t, root)

	u := waitUpdate(t, updates)
	assert.Nil(t, u.old)
	require.Len(t, u.current, 1)
	assert.Contains(t, u.current, "a.txt")
	assert.Len(t, u.changes.Added, 1)
}

func TestRunDetectsNewFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	updates, _ := runWatcher(t, root)
	waitUpdate(t, updates) // initial

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("world"), 0644))

	u := waitUpdate(t, updates)
	require.Len(t, u.current, 2)
	assert.Contains(t, u.current, "b.txt")
	require.Len(t, u.changes.Added, 1)
	assert.Equal(t, "b.txt", u.changes.Added[0].Path)
	assert.Contains(t, u.old, "a.txt")
}

func TestRunDetectsModification(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	updates, _ := runWatcher(t, root)
	first := waitUpdate(t, updates)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))

	u := waitUpdate(t, updates)
	require.Len(t, u.changes.Modified, 1)
	assert.Equal(t, "a.txt", u.changes.Modified[0].Path)
	assert.NotEqual(t, first.current["a.txt"].Digest, u.current["a.txt"].Digest)
}

func TestRunMissingRoot(t *testing.T) {
	var s tree.Scanner
	w := New(&s, filepath.Join(t.TempDir(), "missing"))

	err := w.Run(context.Background(), func(tree.Index, tree.Index, *tree.Changes) {})
	require.Error(t, err)
}

func TestRunCancel(t *testing.T) {
	updates, cancel := runWatcher(t, t.TempDir())
	waitUpdate(t, updates)
	cancel()
	// Cleanup asserts the goroutine exits with context.Canceled.
}
