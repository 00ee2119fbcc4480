package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffEmpty(t *testing.T) {
	idx := Index{"a.txt": Entry{Path: "a.txt", Digest: "aaa"}}

	c := Diff(idx, idx)
	assert.True(t, c.Empty())
}

func TestDiffGroups(t *testing.T) {
	old := Index{
		"kept.txt":    Entry{Path: "kept.txt", Digest: "k1"},
		"changed.txt": Entry{Path: "changed.txt", Digest: "c1"},
		"gone.txt":    Entry{Path: "gone.txt", Digest: "g1"},
		"touched.txt": Entry{Path: "touched.txt", Digest: "t1", Size: 5},
	}
	new := Index{
		"kept.txt":    Entry{Path: "kept.txt", Digest: "k1"},
		"changed.txt": Entry{Path: "changed.txt", Digest: "c2"},
		"new.txt":     Entry{Path: "new.txt", Digest: "n1"},
		// Same digest, different size metadata: not a modification.
		"touched.txt": Entry{Path: "touched.txt", Digest: "t1", Size: 9},
	}

	c := Diff(old, new)

	require.Len(t, c.Added, 1)
	assert.Equal(t, "new.txt", c.Added[0].Path)
	assert.Nil(t, c.Added[0].Old)

	require.Len(t, c.Modified, 1)
	assert.Equal(t, "changed.txt", c.Modified[0].Path)
	assert.Equal(t, "c1", c.Modified[0].Old.Digest)
	assert.Equal(t, "c2", c.Modified[0].New.Digest)

	require.Len(t, c.Deleted, 1)
	assert.Equal(t, "gone.txt", c.Deleted[0].Path)

	assert.False(t, c.Empty())
}

func TestDiffSorted(t *testing.T) {
	old := Index{}
	new := Index{
		"c.txt": Entry{Path: "c.txt", Digest: "c"},
		"a.txt": Entry{Path: "a.txt", Digest: "a"},
		"b.txt": Entry{Path: "b.txt", Digest: "b"},
	}

	c := Diff(old, new)

	require.Len(t, c.Added, 3)
	assert.Equal(t, "a.txt", c.Added[0].Path)
	assert.Equal(t, "b.txt", c.Added[1].Path)
	assert.Equal(t, "c.txt", c.Added[2].Path)
}
