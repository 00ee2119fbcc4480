package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"not found", NotFound("/tmp/missing"), "path does not exist: /tmp/missing"},
		{"not a dir", NotADir("/tmp/file.txt"), "not a directory path: /tmp/file.txt"},
		{"not a file", NotAFile("/tmp/dir"), "not a file path: /tmp/dir"},
		{"invalid format", InvalidFormat("missing digest on line %d", 3), "invalid file format: missing digest on line 3"},
		{"io with cause", IO("/tmp/x", errors.New("permission denied")), "io error: /tmp/x: permission denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fs.ErrPermission
	err := IO("/tmp/x", cause)

	require.ErrorIs(t, err, fs.ErrPermission)
}

func TestIsKind(t *testing.T) {
	err := NotFound("/tmp/missing")

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindIO))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}

func TestIsKindWrapped(t *testing.T) {
	inner := IO("/tmp/x", errors.New("boom"))
	wrapped := errors.Join(errors.New("context"), inner)

	assert.True(t, IsKind(wrapped, KindIO))
}
