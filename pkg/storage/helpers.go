package storage

import (
	"context"
	"fmt"
	"io"
)

// ReadAll reads the whole file stored under key.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFailed, key, err)
	}
	return data, nil
}
