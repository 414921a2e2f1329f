package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/batchmail/pkg/attachment"
	"github.com/dmitrymomot/batchmail/pkg/logger"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/mailer/smtp"
	"github.com/dmitrymomot/batchmail/pkg/recipient"
	"github.com/dmitrymomot/batchmail/pkg/storage"
)

// Engine sends one message per recipient and reports what happened to each.
// An Engine holds no per-batch state and may run several batches concurrently.
type Engine struct {
	newTransport TransportFactory
	store        storage.Storage
	logger       *slog.Logger
	observers    []Observer
	workers      int
	interval     time.Duration
	policy       AttachmentPolicy
}

// New returns an Engine that reads recipient lists and attachments from store.
// Each batch gets its own transport, built from the SMTP settings of its config.
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		logger:  logger.NewNope(),
		workers: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.newTransport == nil {
		log := e.logger
		e.newTransport = func(cfg smtp.Config) (mailer.Transport, error) {
			t, err := smtp.New(cfg, smtp.WithLogger(log))
			if err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return e
}

// Run validates req, loads its recipient list from storage and runs the batch.
// Validation and list errors are returned without a report.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	composer, err := newComposer(req.Config)
	if err != nil {
		return nil, err
	}
	transport, err := e.transportFor(req.Config)
	if err != nil {
		return nil, err
	}

	list, err := recipient.Load(ctx, e.store, req.RecipientListPath)
	if err != nil {
		return nil, err
	}

	return e.dispatch(ctx, transport, list, req.Config, composer)
}

// RunBatch validates cfg and sends to every non-blank line of lines.
//
// A validation error is returned before any storage or SMTP call. Otherwise a
// report with one outcome per non-blank line is always returned; the error is
// ErrFatalTransport when no session could be opened and ErrCancelled when ctx
// ended before every recipient was attempted. Individual send failures are only
// recorded in the report.
func (e *Engine) RunBatch(ctx context.Context, lines []string, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	composer, err := newComposer(cfg)
	if err != nil {
		return nil, err
	}
	transport, err := e.transportFor(cfg)
	if err != nil {
		return nil, err
	}

	return e.dispatch(ctx, transport, recipient.FromLines(lines), cfg, composer)
}

func (e *Engine) transportFor(cfg Config) (mailer.Transport, error) {
	t, err := e.newTransport(cfg.SMTP())
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	return t, nil
}

func newComposer(cfg Config) (*mailer.Composer, error) {
	c, err := mailer.NewComposer(cfg.Composer())
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	return c, nil
}

func (e *Engine) dispatch(ctx context.Context, transport mailer.Transport, list recipient.List, cfg Config, composer *mailer.Composer) (*Report, error) {
	report := &Report{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, len(list)),
	}
	ctx = logger.WithBatchID(ctx, report.BatchID)

	e.logger.InfoContext(ctx, "batch started",
		slog.Int("recipients", len(list)),
		slog.Int("workers", e.workers),
		slog.Any("config", cfg),
	)

	err := e.deliver(ctx, transport, list, cfg, composer, report)

	report.FinishedAt = time.Now().UTC()
	report.tally()

	e.logger.InfoContext(ctx, "batch finished",
		slog.Int("sent", report.SentCount),
		slog.Int("failed", report.FailedCount),
		slog.Int("missing_attachments", report.SkippedAttachmentCount),
		slog.Bool("cancelled", report.Cancelled),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	return report, err
}

func (e *Engine) deliver(ctx context.Context, transport mailer.Transport, list recipient.List, cfg Config, composer *mailer.Composer, report *Report) error {
	if len(list) == 0 {
		return nil
	}

	attempted := make([]bool, len(list))

	// If the first session cannot be opened nothing can be sent.
	session, err := transport.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return e.cancelRemaining(ctx, list, attempted, report)
		}
		e.failAll(ctx, list, err, report)
		return fmt.Errorf("%w: %w", ErrFatalTransport, err)
	}

	resolver := attachment.NewResolver(e.store, cfg.AttachmentDir)
	var limiter *rate.Limiter
	if e.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(e.interval), 1)
	}

	tasks := make(chan recipient.Recipient)
	var g errgroup.Group

	g.Go(func() error {
		defer close(tasks)
		for _, r := range list {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case tasks <- r:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for n := range min(e.workers, len(list)) {
		w := &worker{
			engine:    e,
			resolver:  resolver,
			composer:  composer,
			limiter:   limiter,
			transport: transport,
		}
		if n == 0 {
			w.session = session
		}

		g.Go(func() error {
			defer w.close(ctx)
			for r := range tasks {
				if ctx.Err() != nil {
					continue
				}
				if err := w.pace(ctx); err != nil {
					continue
				}

				// Once started, a recipient runs to completion even if ctx ends.
				o := w.process(context.WithoutCancel(ctx), r)
				report.Outcomes[r.Index] = o
				attempted[r.Index] = true
				e.notify(ctx, o)
			}
			return nil
		})
	}

	_ = g.Wait()

	if ctx.Err() != nil {
		return e.cancelRemaining(ctx, list, attempted, report)
	}
	return nil
}

// failAll records the same transport failure for every recipient.
func (e *Engine) failAll(ctx context.Context, list recipient.List, cause error, report *Report) {
	detail := cause.Error()
	e.logger.ErrorContext(ctx, "smtp session could not be established", slog.String("error", detail))

	for _, r := range list {
		o := Outcome{
			Index:     r.Index,
			Recipient: r.Address,
			Status:    StatusFailed,
			Detail:    detail,
		}
		report.Outcomes[r.Index] = o
		e.notify(ctx, o)
	}
}

// cancelRemaining fails every recipient that was never attempted.
// It returns nil when nothing was left.
func (e *Engine) cancelRemaining(ctx context.Context, list recipient.List, attempted []bool, report *Report) error {
	cause := context.Cause(ctx)
	detail := "batch cancelled: " + cause.Error()

	remaining := 0
	for _, r := range list {
		if attempted[r.Index] {
			continue
		}
		remaining++
		o := Outcome{
			Index:     r.Index,
			Recipient: r.Address,
			Status:    StatusFailed,
			Detail:    detail,
		}
		report.Outcomes[r.Index] = o
		e.notify(ctx, o)
	}
	if remaining == 0 {
		return nil
	}

	report.Cancelled = true
	e.logger.WarnContext(ctx, "batch cancelled", slog.Int("remaining", remaining), slog.String("cause", cause.Error()))
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

func (e *Engine) notify(ctx context.Context, o Outcome) {
	attrs := []slog.Attr{
		slog.Int("index", o.Index),
		slog.String("recipient", o.Recipient),
		slog.String("status", string(o.Status)),
	}
	if o.Detail != "" {
		attrs = append(attrs, slog.String("detail", o.Detail))
	}
	if o.SentWithoutAttachment {
		attrs = append(attrs, slog.Bool("without_attachment", true))
	}

	level := slog.LevelInfo
	if o.Status != StatusSent {
		level = slog.LevelWarn
	}
	e.logger.LogAttrs(ctx, level, "recipient processed", attrs...)

	for _, obs := range e.observers {
		obs(ctx, o)
	}
}
