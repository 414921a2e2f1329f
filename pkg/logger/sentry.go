package logger

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	Release     string `env:"SENTRY_RELEASE"`
	// MinLevel is the lowest level forwarded to Sentry as a log entry.
	// Errors always create Sentry events.
	MinLevel slog.Level
}

// NewWithSentry creates a logger writing JSON to w and forwarding warnings and
// errors to Sentry. Call the returned flush before the process exits: a batch
// run is short-lived and Sentry sends asynchronously.
//
// With an empty DSN, or when Sentry fails to initialise, only w is used.
func NewWithSentry(w io.Writer, level slog.Level, cfg SentryConfig, extractors ...ContextExtractor) (*slog.Logger, func()) {
	console := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	noop := func() {}

	if cfg.DSN == "" {
		return slog.New(NewHandler(console, extractors...)), noop
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		log := slog.New(NewHandler(console, extractors...))
		log.Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return log, noop
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}
	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())

	// Redaction sits in front of both sinks.
	log := slog.New(NewHandler(fanout{console, sentryHandler}, extractors...))
	return log, func() { sentry.Flush(sentryFlushTimeout) }
}
