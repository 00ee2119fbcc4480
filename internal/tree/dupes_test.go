package tree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanTree(t *testing.T, files map[string]string) (string, Index) {
	t.Helper()
	root := makeTree(t, files)
	var s Scanner
	idx, err := s.Scan(root)
	require.NoError(t, err)
	return root, idx
}

func TestFromIndexWithDupes(t *testing.T) {
	_, idx := scanTree(t, map[string]string{
		"a.txt":     "same",
		"b.txt":     "same",
		"c/d.txt":   "same",
		"other.txt": "different",
	})

	di := FromIndex(idx, "", true)

	require.Len(t, di, 2)
	same := di[idx["a.txt"].Digest]
	require.NotNil(t, same)
	// Sorted fold order makes a.txt the primary.
	assert.Equal(t, "a.txt", same.Path)
	assert.Equal(t, []string{"b.txt", "c/d.txt"}, same.Dupes)
	assert.Equal(t, 2, di.CountDupes())
}

func TestFromIndexWithoutDupes(t *testing.T) {
	_, idx := scanTree(t, map[string]string{
		"a.txt": "same",
		"b.txt": "same",
	})

	di := FromIndex(idx, "", false)

	require.Len(t, di, 1)
	assert.Equal(t, 0, di.CountDupes())
}

func TestFromIndexJoinsRoot(t *testing.T) {
	root, idx := scanTree(t, map[string]string{"a.txt": "x"})

	di := FromIndex(idx, root, false)

	set := di[idx["a.txt"].Digest]
	require.NotNil(t, set)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "a.txt")), set.Path)
}

func TestMatchFindsDupesInOtherTree(t *testing.T) {
	rootA, idxA := scanTree(t, map[string]string{
		"orig.txt":   "shared content",
		"unique.txt": "only here",
	})
	rootB := makeTree(t, map[string]string{
		"copy.txt":      "shared content",
		"sub/copy2.txt": "shared content",
		"noise.txt":     "unrelated",
	})

	di := FromIndex(idxA, rootA, false)
	var s Scanner
	require.NoError(t, di.Match(&s, rootB))

	shared := di[idxA["orig.txt"].Digest]
	require.NotNil(t, shared)
	absB, err := filepath.Abs(rootB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.ToSlash(filepath.Join(absB, "copy.txt")),
		filepath.ToSlash(filepath.Join(absB, "sub", "copy2.txt")),
	}, shared.Dupes)

	unique := di[idxA["unique.txt"].Digest]
	require.NotNil(t, unique)
	assert.Empty(t, unique.Dupes)
}

func TestMatchSkipsOversizedFiles(t *testing.T) {
	rootA, idxA := scanTree(t, map[string]string{"orig.txt": "abc"})
	rootB := makeTree(t, map[string]string{
		"copy.txt": "abc",
		"big.bin":  "way larger than anything indexed",
	})

	di := FromIndex(idxA, rootA, false)
	var s Scanner
	require.NoError(t, di.Match(&s, rootB))

	// Only the same-sized copy can match; the scan itself never hashes
	// big.bin thanks to the max-size bound.
	assert.Equal(t, 1, di.CountDupes())
}

func TestConfirmKeepsTrueDupes(t *testing.T) {
	// Fast digests collide for files differing only in the middle chunk
	// of a large file; simulate a false candidate with a handcrafted
	// index instead of multi-megabyte fixtures.
	root := makeTree(t, map[string]string{
		"primary.txt": "same content",
		"true.txt":    "same content",
		"false.txt":   "other content",
	})

	p := func(name string) string {
		return filepath.ToSlash(filepath.Join(root, name))
	}
	di := DigestIndex{
		"candidate": &DupeSet{
			Entry: Entry{Path: p("primary.txt"), Digest: "candidate", Size: 12},
			Dupes: []string{p("true.txt"), p("false.txt")},
		},
	}

	confirmed, err := di.Confirm(nil)
	require.NoError(t, err)

	require.Len(t, confirmed, 1)
	for _, set := range confirmed {
		assert.Equal(t, p("primary.txt"), set.Path)
		assert.Equal(t, []string{p("true.txt")}, set.Dupes)
		assert.Len(t, set.Digest, 64, "confirm rekeys by full digest")
	}
}

func TestConfirmMissingFile(t *testing.T) {
	di := DigestIndex{
		"x": &DupeSet{Entry: Entry{Path: filepath.Join(t.TempDir(), "gone.txt"), Digest: "x"}},
	}

	_, err := di.Confirm(nil)
	require.Error(t, err)
}

func TestDropZero(t *testing.T) {
	di := DigestIndex{
		"a": &DupeSet{Entry: Entry{Path: "a.txt", Digest: "a", Size: 10}},
		"b": &DupeSet{Entry: Entry{Path: "empty.txt", Digest: "b", Size: 0}},
	}

	kept := di.DropZero()

	require.Len(t, kept, 1)
	assert.Contains(t, kept, "a")
}

func TestFindIn(t *testing.T) {
	needle := DigestIndex{
		"d1": &DupeSet{Entry: Entry{Path: "needle/a.txt", Digest: "d1", Size: 5}},
		"d2": &DupeSet{Entry: Entry{Path: "needle/b.txt", Digest: "d2", Size: 5}},
	}
	haystack := DigestIndex{
		"d1": &DupeSet{
			Entry: Entry{Path: "hay/a.txt", Digest: "d1", Size: 5},
			Dupes: []string{"hay/a2.txt", "needle/a.txt"},
		},
		"d3": &DupeSet{Entry: Entry{Path: "hay/c.txt", Digest: "d3", Size: 5}},
	}

	found := needle.FindIn(haystack)

	require.Len(t, found, 1)
	set := found["d1"]
	require.NotNil(t, set)
	assert.Equal(t, "needle/a.txt", set.Path)
	// The needle's own path is filtered out of the haystack dupes.
	assert.Equal(t, []string{"hay/a.txt", "hay/a2.txt"}, set.Dupes)
}

func TestSavedBytesAndDupeDirs(t *testing.T) {
	di := DigestIndex{
		"a": &DupeSet{
			Entry: Entry{Path: "x/a.txt", Digest: "a", Size: 100},
			Dupes: []string{"y/a1.txt", "z/a2.txt"},
		},
		"b": &DupeSet{
			Entry: Entry{Path: "x/b.txt", Digest: "b", Size: 7},
			Dupes: []string{"y/b1.txt"},
		},
	}

	assert.Equal(t, int64(207), di.SavedBytes())
	assert.Equal(t, []string{"y", "z"}, di.DupeDirs())
}

func TestMatchMissingRoot(t *testing.T) {
	di := DigestIndex{}
	var s Scanner

	err := di.Match(&s, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestDigestsSorted(t *testing.T) {
	di := DigestIndex{
		"ccc": &DupeSet{}, "aaa": &DupeSet{}, "bbb": &DupeSet{},
	}
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, di.Digests())
}
