package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/mailer/smtp"
)

// AttachmentPolicy decides what happens to a recipient whose file is missing.
type AttachmentPolicy int

const (
	// PolicyOptional sends the message without an attachment and annotates the outcome.
	PolicyOptional AttachmentPolicy = iota

	// PolicyRequire records StatusSkippedNoAttachment and sends nothing.
	PolicyRequire
)

// Observer is notified of every outcome as soon as it is known.
// Observers are called from worker goroutines and must be safe for concurrent use.
type Observer func(ctx context.Context, o Outcome)

// TransportFactory builds the transport for one batch from its SMTP settings.
type TransportFactory func(cfg smtp.Config) (mailer.Transport, error)

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of concurrent senders, each with its own SMTP session.
// Values below 1 are ignored. Default: 1, which processes recipients strictly in order.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithRateLimit sets the minimum interval between sends across all workers.
func WithRateLimit(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithAttachmentPolicy sets the missing-attachment policy. Default: PolicyOptional.
func WithAttachmentPolicy(p AttachmentPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTransportFactory replaces the default SMTP transport constructor.
func WithTransportFactory(f TransportFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.newTransport = f
		}
	}
}

// WithLogger sets the logger used for batch progress.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver adds an outcome observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}
