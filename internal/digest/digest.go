// Package digest computes content fingerprints of files. The full digest
// is a streaming SHA-256 over the whole file. The fast digest trades
// precision for speed: for large files it hashes only the first and last
// chunk with xxHash, which is close enough for candidate matching and
// must be confirmed with a full digest before acting on it.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"treetool/internal/errors"
)

// ChunkSize is the streaming buffer size and the window hashed at each
// end of a file in fast mode.
const ChunkSize = 1 << 20 // 1 MiB

// Size is the length in bytes of a full digest.
const Size = sha256.Size

// Sum computes the full digest of everything readable from r, returned
// as lowercase hex.
func Sum(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumBytes computes the full digest of an in-memory buffer.
func SumBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SumFile computes the full digest of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.IO(path, err)
	}
	defer f.Close()

	sum, err := Sum(f)
	if err != nil {
		return "", errors.IO(path, err)
	}
	return sum, nil
}

// FastSumFile computes the fast digest of the file at path: an xxHash of
// the first ChunkSize bytes and, when the file is larger than one chunk,
// the last ChunkSize bytes. Two files with equal fast digests are dupe
// candidates, nothing more.
func FastSumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.IO(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.IO(path, err)
	}
	size := info.Size()

	h := xxhash.New()
	buf := make([]byte, ChunkSize)

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", errors.IO(path, err)
	}
	h.Write(buf[:n])

	if size > ChunkSize {
		if _, err := f.Seek(size-ChunkSize, io.SeekStart); err != nil {
			return "", errors.IO(path, err)
		}
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", errors.IO(path, err)
		}
		h.Write(buf[:n])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// File dispatches to SumFile or FastSumFile.
func File(path string, fast bool) (string, error) {
	if fast {
		return FastSumFile(path)
	}
	return SumFile(path)
}
