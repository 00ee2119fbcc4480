// Package tree builds content-digest indexes of directory trees and
// provides the duplicate-detection operations layered on top of them.
package tree

import (
	"fmt"
	"sort"
	"time"
)

// Entry records one regular file found during a scan. Path is relative
// to the scan root and slash-separated on every platform. Digest is the
// lowercase hex fingerprint of the file contents. Entries are never
// mutated after the scan that produced them.
type Entry struct {
	Path    string    `json:"path"`
	Digest  string    `json:"digest"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// String renders the entry in the index line format "digest size path".
func (e Entry) String() string {
	return fmt.Sprintf("%s %d %s", e.Digest, e.Size, e.Path)
}

// Index maps relative path to entry: the snapshot of one scan. It is
// owned by the caller and never updated behind its back; rescanning
// produces a fresh Index.
type Index map[string]Entry

// Paths returns the indexed paths in sorted order.
func (idx Index) Paths() []string {
	paths := make([]string, 0, len(idx))
	for p := range idx {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// MaxSize returns the size of the largest indexed file.
func (idx Index) MaxSize() int64 {
	var max int64
	for _, e := range idx {
		if e.Size > max {
			max = e.Size
		}
	}
	return max
}

// TotalSize returns the summed size of all indexed files.
func (idx Index) TotalSize() int64 {
	var total int64
	for _, e := range idx {
		total += e.Size
	}
	return total
}
