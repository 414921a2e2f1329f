package logger

import (
	"context"
	"log/slog"
)

type batchIDKey struct{}

// WithBatchID returns a copy of ctx carrying the batch ID.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, id)
}

// BatchID returns the batch ID stored in ctx, if any.
func BatchID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(batchIDKey{}).(string)
	return id, ok && id != ""
}

// BatchIDExtractor adds a "batch_id" attribute to every record logged with a
// context produced by WithBatchID.
func BatchIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := BatchID(ctx); ok {
			return slog.String("batch_id", id), true
		}
		return slog.Attr{}, false
	}
}
