package tree

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"treetool/internal/digest"
)

// DupeSet is one indexed file plus the paths of other files that share
// its digest.
type DupeSet struct {
	Entry
	Dupes []string `json:"dupes,omitempty"`
}

// DigestIndex maps digest to the set of files carrying it. The first
// file seen for a digest is the primary entry; later files land in
// Dupes when dupe tracking is on, and are dropped otherwise.
type DigestIndex map[string]*DupeSet

// FromIndex converts a scan Index into a DigestIndex. Paths are joined
// onto root so they stay resolvable when the DigestIndex is matched
// against other trees; an empty root keeps them relative. Index paths
// are folded in sorted order, so the primary for each digest is stable.
func FromIndex(idx Index, root string, withDupes bool) DigestIndex {
	di := make(DigestIndex)
	for _, rel := range idx.Paths() {
		e := idx[rel]
		if root != "" {
			e.Path = filepath.ToSlash(filepath.Join(root, filepath.FromSlash(rel)))
		}
		di.add(e, withDupes)
	}
	return di
}

func (di DigestIndex) add(e Entry, withDupes bool) {
	if set, ok := di[e.Digest]; ok {
		if withDupes {
			set.Dupes = append(set.Dupes, e.Path)
		}
		return
	}
	di[e.Digest] = &DupeSet{Entry: e}
}

// Digests returns the digests in sorted order.
func (di DigestIndex) Digests() []string {
	digests := make([]string, 0, len(di))
	for d := range di {
		digests = append(digests, d)
	}
	sort.Strings(digests)
	return digests
}

// CountDupes returns the total number of recorded duplicate paths.
func (di DigestIndex) CountDupes() int {
	count := 0
	for _, set := range di {
		count += len(set.Dupes)
	}
	return count
}

// MaxSize returns the size of the largest primary entry.
func (di DigestIndex) MaxSize() int64 {
	var max int64
	for _, set := range di {
		if set.Size > max {
			max = set.Size
		}
	}
	return max
}

// Match scans the tree at root and records every file whose digest
// already appears in the index as a dupe of that entry. Files larger
// than the largest indexed file cannot match and are not hashed.
func (di DigestIndex) Match(s *Scanner, root string) error {
	matcher := *s
	matcher.MaxSize = di.MaxSize()

	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	idx, err := matcher.Scan(abs)
	if err != nil {
		return err
	}

	for _, rel := range idx.Paths() {
		e := idx[rel]
		set, ok := di[e.Digest]
		if !ok {
			continue
		}
		path := filepath.ToSlash(filepath.Join(abs, filepath.FromSlash(rel)))
		if path != set.Path {
			set.Dupes = append(set.Dupes, path)
		}
	}
	return nil
}

// Confirm re-digests every primary and dupe with the full algorithm and
// returns a new index keyed by the full digests, keeping only dupes
// whose contents truly equal their primary's. This is how fast-mode
// candidate matches are validated before acting on them.
func (di DigestIndex) Confirm(logger *zap.Logger) (DigestIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	confirmed := make(DigestIndex)
	for _, d := range di.Digests() {
		set := di[d]

		path := filepath.FromSlash(set.Path)
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		sum, err := digest.SumFile(path)
		if err != nil {
			return nil, err
		}

		entry := set.Entry
		entry.Digest = sum
		entry.Size = info.Size()
		confirmed[sum] = &DupeSet{Entry: entry}

		for _, dupe := range set.Dupes {
			dupePath := filepath.FromSlash(dupe)
			dupeInfo, err := os.Stat(dupePath)
			if err != nil {
				return nil, err
			}
			// A dupe of a different size cannot match; skip the hash.
			if dupeInfo.Size() != entry.Size {
				logger.Debug("dropping size-mismatched dupe",
					zap.String("path", dupe),
					zap.String("primary", set.Path))
				continue
			}
			dupeSum, err := digest.SumFile(dupePath)
			if err != nil {
				return nil, err
			}
			if dupeSum == sum {
				logger.Debug("confirmed dupe",
					zap.String("path", dupe),
					zap.String("primary", set.Path))
				confirmed[sum].Dupes = append(confirmed[sum].Dupes, dupe)
			} else {
				logger.Debug("rejected dupe",
					zap.String("path", dupe),
					zap.String("primary", set.Path))
			}
		}
	}
	return confirmed, nil
}

// DropZero returns a copy of the index without zero-length entries.
func (di DigestIndex) DropZero() DigestIndex {
	kept := make(DigestIndex)
	for d, set := range di {
		if set.Size > 0 {
			kept[d] = set
		}
	}
	return kept
}

// FindIn looks every digest of di up in haystack and returns a new index
// holding, for each hit, di's entry with the haystack's primary and
// dupes (minus di's own path) recorded as dupes.
func (di DigestIndex) FindIn(haystack DigestIndex) DigestIndex {
	found := make(DigestIndex)
	for d, needle := range di {
		hit, ok := haystack[d]
		if !ok || needle.Path == hit.Path {
			continue
		}
		set := &DupeSet{Entry: needle.Entry, Dupes: []string{hit.Path}}
		for _, dupe := range hit.Dupes {
			if dupe != needle.Path {
				set.Dupes = append(set.Dupes, dupe)
			}
		}
		found[d] = set
	}
	return found
}

// SavedBytes returns the storage that deduplication would reclaim: the
// summed size of every recorded dupe.
func (di DigestIndex) SavedBytes() int64 {
	var total int64
	for _, set := range di {
		total += set.Size * int64(len(set.Dupes))
	}
	return total
}

// DupeDirs returns the sorted set of directories containing at least one
// recorded dupe.
func (di DigestIndex) DupeDirs() []string {
	seen := make(map[string]struct{})
	for _, set := range di {
		for _, dupe := range set.Dupes {
			dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(dupe)))
			seen[dir] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}
