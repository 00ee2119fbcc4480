package tree

import "sort"

// Change describes one path that differs between two snapshots.
type Change struct {
	Path string
	Old  *Entry
	New  *Entry
}

// Changes is the difference between two Index snapshots of the same
// root, grouped by the kind of change.
type Changes struct {
	Added    []Change
	Modified []Change
	Deleted  []Change
}

func (c *Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Diff compares two snapshots. A path counts as modified only when its
// digest changed; size or mtime churn with identical contents does not.
// Each group comes back sorted by path.
func Diff(old, new Index) *Changes {
	c := &Changes{}

	for path, newEntry := range new {
		newEntry := newEntry
		if oldEntry, ok := old[path]; ok {
			if oldEntry.Digest != newEntry.Digest {
				oldEntry := oldEntry
				c.Modified = append(c.Modified, Change{Path: path, Old: &oldEntry, New: &newEntry})
			}
			continue
		}
		c.Added = append(c.Added, Change{Path: path, New: &newEntry})
	}

	for path, oldEntry := range old {
		if _, ok := new[path]; !ok {
			oldEntry := oldEntry
			c.Deleted = append(c.Deleted, Change{Path: path, Old: &oldEntry})
		}
	}

	for _, group := range [][]Change{c.Added, c.Modified, c.Deleted} {
		sort.Slice(group, func(i, j int) bool { return group[i].Path < group[j].Path })
	}
	return c
}
