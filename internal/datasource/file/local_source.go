// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"ontime/internal/etlerr"
)

// Exists reports whether path names a regular file that can be opened for
// reading. Missing paths, missing parent directories, directories and broken
// symlinks all report false; absence is never an error.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled at the time of the call, Open returns
//     the context error without touching the filesystem.
//   - A path that is not a readable regular file fails with etlerr.ErrNotFound.
//     The underlying filesystem error is kept in the chain, so
//     errors.Is(err, os.ErrNotExist) still works for a missing file.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	fi, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", l.path, etlerr.ErrNotFound, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("open %s: %w: not a regular file", l.path, etlerr.ErrNotFound)
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", l.path, etlerr.ErrNotFound, err)
	}
	return f, nil
}
