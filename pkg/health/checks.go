package health

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/batchmail/pkg/storage"
)

// Pinger is implemented by transports that can verify a login without sending.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SMTP checks that a session can be opened.
func SMTP(p Pinger) CheckFunc {
	return p.Ping
}

// File checks that key exists in store.
func File(store storage.Storage, key string) CheckFunc {
	return func(ctx context.Context) error {
		ok, err := store.Exists(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil
	}
}
