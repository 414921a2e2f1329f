package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local implements Storage on the local filesystem.
type Local struct {
	root string
}

// NewLocal returns a filesystem-backed Storage.
// With an empty root, keys are used as plain OS paths (absolute or relative to the
// working directory). With a root, keys are resolved inside it and cannot escape it.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Get opens the file at key.
func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapFSError(err, key)
	}
	return f, nil
}

// Exists stats the file at key. Directories do not count as files.
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := l.path(key)
	if err != nil {
		return false, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, wrapFSError(err, key)
	}
	return fi.Mode().IsRegular(), nil
}

func (l *Local) path(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	if l.root == "" {
		return filepath.FromSlash(key), nil
	}

	// Rooting the key before cleaning collapses any ".." segments at the root.
	path := filepath.Join(l.root, filepath.Clean("/"+filepath.FromSlash(key)))
	return path, nil
}

func wrapFSError(err error, key string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %v", ErrAccessDenied, key, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, key, err)
	}
}

var _ Storage = (*Local)(nil)
