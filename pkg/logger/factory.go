package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON logger writing to stderr with optional context extractors.
// Stdout is left to the program's own output (e.g. a batch report).
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewWithWriter(os.Stderr, slog.LevelInfo, extractors...)
}

// NewWithWriter creates a JSON logger writing to w at the given minimum level.
func NewWithWriter(w io.Writer, level slog.Level, extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewHandler(h, extractors...))
}

// NewNope returns a logger that discards everything.
// Engines and transports default to it when no logger is supplied.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
