package tree

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"treetool/internal/digest"
	"treetool/internal/errors"
)

// Scanner walks a directory subtree and produces an Index with one entry
// per regular file. The zero value scans everything sequentially with
// full digests.
//
// Traversal is deterministic: entries are visited in sorted order.
// Symbolic links are never followed and never indexed, which keeps the
// walk inside the root. The scan is fail-fast: the first stat, read or
// hash error aborts it and no partial Index is returned.
type Scanner struct {
	// Fast selects the fast digest (first and last chunk, xxHash)
	// instead of the full SHA-256.
	Fast bool

	// MaxSize, when positive, skips files larger than this many bytes.
	MaxSize int64

	// Workers sets the number of concurrent hashers. Values below 2
	// hash sequentially. The resulting Index is identical for every
	// worker count.
	Workers int

	// Exclude holds patterns matched against each path component and
	// against the whole relative path. Matching files and directory
	// subtrees are skipped. Empty by default: every regular file is
	// indexed.
	Exclude []string

	// Logger receives scan progress at debug level. Nil means no
	// logging.
	Logger *zap.Logger
}

func (s *Scanner) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Scan builds the Index for the tree rooted at root. Root is resolved
// to an absolute path first; it must exist and be a directory.
func (s *Scanner) Scan(root string) (Index, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.IO(root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(root)
		}
		return nil, errors.IO(root, err)
	}
	if !info.IsDir() {
		return nil, errors.NotADir(root)
	}

	log := s.logger()
	log.Debug("scanning tree", zap.String("root", abs))

	files, err := s.collect(abs)
	if err != nil {
		return nil, err
	}

	if s.Workers > 1 {
		return s.hashParallel(abs, files)
	}
	return s.hashSequential(abs, files)
}

// collect walks the tree and returns the relative paths of every regular
// file to be hashed, in sorted order.
func (s *Scanner) collect(root string) ([]string, error) {
	log := s.logger()
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.IO(path, err)
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.IO(path, err)
		}
		rel = filepath.ToSlash(rel)

		if s.excluded(rel) {
			if d.IsDir() {
				log.Debug("skipping excluded directory", zap.String("path", rel))
				return fs.SkipDir
			}
			return nil
		}

		// Symlinks are neither followed nor indexed; WalkDir does not
		// descend into them and Type().IsRegular() is false for them.
		if !d.Type().IsRegular() {
			return nil
		}

		if s.MaxSize > 0 {
			info, err := d.Info()
			if err != nil {
				return errors.IO(path, err)
			}
			if info.Size() > s.MaxSize {
				log.Debug("skipping oversized file",
					zap.String("path", rel),
					zap.Int64("size", info.Size()))
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) hashSequential(root string, files []string) (Index, error) {
	idx := make(Index, len(files))
	for _, rel := range files {
		entry, err := s.hashOne(root, rel)
		if err != nil {
			return nil, err
		}
		idx[rel] = entry
	}
	return idx, nil
}

// hashParallel fans the files out over a bounded worker pool. Digesting
// is a pure per-file function, so the Index comes out identical to the
// sequential one; when several workers fail, the error for the smallest
// path wins to keep failures deterministic too.
func (s *Scanner) hashParallel(root string, files []string) (Index, error) {
	type result struct {
		rel   string
		entry Entry
		err   error
	}

	jobs := make(chan string, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < s.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				entry, err := s.hashOne(root, rel)
				results <- result{rel: rel, entry: entry, err: err}
			}
		}()
	}

	for _, rel := range files {
		jobs <- rel
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	idx := make(Index, len(files))
	var firstErr error
	var firstErrPath string
	for r := range results {
		if r.err != nil {
			if firstErr == nil || r.rel < firstErrPath {
				firstErr, firstErrPath = r.err, r.rel
			}
			continue
		}
		idx[r.rel] = r.entry
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return idx, nil
}

func (s *Scanner) hashOne(root, rel string) (Entry, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil {
		return Entry{}, errors.IO(abs, err)
	}
	if !info.Mode().IsRegular() {
		return Entry{}, errors.NotAFile(abs)
	}

	s.logger().Debug("digesting file", zap.String("path", rel))
	sum, err := digest.File(abs, s.Fast)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Path:    rel,
		Digest:  sum,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		for _, part := range strings.Split(rel, "/") {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
