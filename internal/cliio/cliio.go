// Package cliio resolves optional path arguments into concrete readers
// and writers. Command line tools built on this module accept either a
// named file or the standard streams: an empty path (or "-" for input)
// selects stdin/stdout.
package cliio

import (
	"io"
	"os"

	"treetool/internal/errors"
)

// Reader returns the input stream for path. "" and "-" select stdin.
// The caller owns the returned closer; closing stdin is a no-op.
func Reader(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	return f, nil
}

// ReaderName names the input source for log output.
func ReaderName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

// nopWriteCloser keeps stdout open when the caller closes the writer.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Writer returns the output stream for path. "" selects stdout.
func Writer(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	return f, nil
}

// WriterName names the output destination for log output.
func WriterName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

// Dir returns path if supplied, otherwise the current working directory.
func Dir(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.IO(".", err)
	}
	return wd, nil
}

// DirName names the directory argument for log output.
func DirName(path string) string {
	if path == "" {
		return "pwd"
	}
	return path
}
