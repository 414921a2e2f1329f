// Package attachment binds recipients to their personalised files.
//
// The binding is positional: the recipient at index i (0-based) gets the file
// "{i+1}.jpg" in the attachment directory. Resolving only checks existence;
// content is read by Load, and only after a hit.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strconv"

	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/storage"
)

// Extension of every attachment file.
const Extension = ".jpg"

var (
	// ErrNotFound indicates the recipient has no attachment file.
	ErrNotFound = errors.New("attachment: not found")

	// ErrInvalidIndex indicates a negative recipient index.
	ErrInvalidIndex = errors.New("attachment: invalid index")

	// ErrLookupFailed indicates storage could not tell whether the file exists.
	ErrLookupFailed = errors.New("attachment: lookup failed")
)

// Filename returns the attachment file name for a 0-based recipient index.
func Filename(index int) string {
	return strconv.Itoa(index+1) + Extension
}

// Path returns the storage key of the attachment for index inside dir.
func Path(dir string, index int) string {
	return path.Join(filepath.ToSlash(dir), Filename(index))
}

// Resolver looks up attachments in a directory of a Storage.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	store storage.Storage
	dir   string
}

// NewResolver returns a Resolver for dir in store.
func NewResolver(store storage.Storage, dir string) *Resolver {
	return &Resolver{store: store, dir: dir}
}

// Resolve returns the key of the attachment for index.
// A missing file yields ErrNotFound; nothing is read or written.
func (r *Resolver) Resolve(ctx context.Context, index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	key := Path(r.dir, index)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrLookupFailed, key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return key, nil
}

// Load reads the attachment stored under key.
// An image type sniffed from the data wins; anything else is labelled by the
// file extension. The content itself is not validated.
func (r *Resolver) Load(ctx context.Context, key string) (*mailer.Attachment, error) {
	data, err := storage.ReadAll(ctx, r.store, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}

	contentType := storage.DetectMIME(data)
	if !storage.IsImageMIME(contentType) {
		if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
			contentType = byExt
		}
	}

	return &mailer.Attachment{
		Filename:    path.Base(key),
		ContentType: contentType,
		Content:     data,
	}, nil
}
