// Package logger provides structured logging with context extraction, secret
// redaction and Sentry integration.
//
// It wraps log/slog with three additions: attributes pulled from the context on
// every call (such as the batch ID of the running dispatch), masking of
// attributes whose key names a secret ("password", "smtp_password",
// "secret_key", ...), and optional forwarding of warnings and errors to Sentry.
//
// Loggers write JSON to stderr by default, keeping stdout free for program
// output such as the batch report printed by cmd/batchmail.
//
// # Basic Usage
//
//	log := logger.New(logger.BatchIDExtractor())
//
//	ctx := logger.WithBatchID(context.Background(), report.BatchID)
//	log.InfoContext(ctx, "batch started", slog.Int("recipients", 120))
//	// {"level":"INFO","msg":"batch started","recipients":120,"batch_id":"6f1c..."}
//
// # Sentry Integration
//
//	log, flush := logger.NewWithSentry(os.Stderr, slog.LevelInfo, logger.SentryConfig{
//		DSN:      os.Getenv("SENTRY_DSN"),
//		MinLevel: slog.LevelWarn,
//	}, logger.BatchIDExtractor())
//	defer flush()
//
// If the DSN is empty, or Sentry fails to initialise, the logger falls back to
// the writer only, so the same wiring works in development.
//
// # Context Extractors
//
// A ContextExtractor returns an attribute to add to the record, or false to skip.
// Extractors run on every log call. Use NewHandler to attach them, together
// with redaction, to any slog.Handler.
package logger
