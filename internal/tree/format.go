package tree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"treetool/internal/errors"
)

// The text format is line oriented. A primary entry is written as
//
//	digest size path
//
// and each dupe of the preceding entry as
//
//	- path
//
// Paths may contain spaces; digest and size never do.

// WriteTo emits the index in the text format, primaries sorted by
// digest.
func (di DigestIndex) WriteTo(w io.Writer) error {
	for _, d := range di.Digests() {
		set := di[d]
		if _, err := fmt.Fprintf(w, "%s %d %s\n", set.Digest, set.Size, set.Path); err != nil {
			return err
		}
		for _, dupe := range set.Dupes {
			if _, err := fmt.Fprintf(w, "- %s\n", dupe); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteIndexTo emits a scan Index in the text format, one line per file
// in path order.
func WriteIndexTo(w io.Writer, idx Index) error {
	for _, p := range idx.Paths() {
		if _, err := fmt.Fprintln(w, idx[p].String()); err != nil {
			return err
		}
	}
	return nil
}

// Parse reads the text format back into a DigestIndex. Dupe lines attach
// to the most recent digest; when withDupes is false they are dropped.
// Malformed lines produce an InvalidFormat error naming the line number.
func Parse(r io.Reader, withDupes bool) (DigestIndex, error) {
	di := make(DigestIndex)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lastDigest := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		d, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, errors.InvalidFormat("missing digest on line %d", lineNo)
		}

		if d == "-" {
			if lastDigest == "" {
				return nil, errors.InvalidFormat("dupe before any entry on line %d", lineNo)
			}
			if withDupes {
				set := di[lastDigest]
				set.Dupes = append(set.Dupes, rest)
			}
			continue
		}

		sizeStr, path, ok := strings.Cut(rest, " ")
		if !ok {
			return nil, errors.InvalidFormat("missing size on line %d", lineNo)
		}
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return nil, errors.InvalidFormat("bad size %q on line %d", sizeStr, lineNo)
		}

		lastDigest = d
		if set, ok := di[d]; ok {
			if withDupes {
				set.Dupes = append(set.Dupes, path)
			}
			continue
		}
		di[d] = &DupeSet{Entry: Entry{Path: path, Digest: d, Size: size}}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.IO("", err)
	}
	return di, nil
}
