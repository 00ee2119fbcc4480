package errors

import (
	"errors"
	"fmt"
)

// Kind classifies errors produced by this module so callers can match on
// the category instead of inspecting raw os errors.
type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindNotADir       Kind = "NOT_A_DIRECTORY"
	KindNotAFile      Kind = "NOT_A_FILE"
	KindInvalidFormat Kind = "INVALID_FORMAT"
	KindIO            Kind = "IO"
)

// Error is the single error type returned across the module. Path names
// the offending filesystem entry where one exists; Err is the wrapped
// lower-level cause, if any.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", kindMessage(e.Kind), e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", kindMessage(e.Kind), e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", kindMessage(e.Kind), e.Err)
	default:
		return kindMessage(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindMessage(k Kind) string {
	switch k {
	case KindNotFound:
		return "path does not exist"
	case KindNotADir:
		return "not a directory path"
	case KindNotAFile:
		return "not a file path"
	case KindInvalidFormat:
		return "invalid file format"
	case KindIO:
		return "io error"
	default:
		return string(k)
	}
}

func NotFound(path string) *Error {
	return &Error{Kind: KindNotFound, Path: path}
}

func NotADir(path string) *Error {
	return &Error{Kind: KindNotADir, Path: path}
}

func NotAFile(path string) *Error {
	return &Error{Kind: KindNotAFile, Path: path}
}

func InvalidFormat(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidFormat, Err: fmt.Errorf(format, args...)}
}

// IO wraps a filesystem error together with the path it occurred on.
func IO(path string, err error) *Error {
	return &Error{Kind: KindIO, Path: path, Err: err}
}

// IsKind reports whether any error in err's chain is a module Error of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
