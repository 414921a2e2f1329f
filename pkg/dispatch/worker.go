package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/batchmail/pkg/attachment"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/recipient"
)

// worker owns one SMTP session and processes recipients one at a time.
type worker struct {
	engine    *Engine
	transport mailer.Transport
	session   mailer.Session
	resolver  *attachment.Resolver
	composer  *mailer.Composer
	limiter   *rate.Limiter
}

// process runs resolve, compose and send for one recipient.
func (w *worker) process(ctx context.Context, r recipient.Recipient) Outcome {
	start := time.Now()
	o := Outcome{Index: r.Index, Recipient: r.Address}

	finish := func(status Status, err error) Outcome {
		o.Status = status
		if err != nil {
			o.Detail = err.Error()
		}
		o.Duration = time.Since(start)
		return o
	}

	att, key, err := w.attachment(ctx, r.Index)
	switch {
	case errors.Is(err, attachment.ErrNotFound):
		if w.engine.policy == PolicyRequire {
			return finish(StatusSkippedNoAttachment, err)
		}
		o.SentWithoutAttachment = true
	case err != nil:
		return finish(StatusFailed, err)
	default:
		o.Attachment = key
	}

	email, err := w.composer.Compose(r.Address, att)
	if err != nil {
		return finish(StatusFailed, err)
	}

	session, err := w.open(ctx)
	if err != nil {
		return finish(StatusFailed, err)
	}
	if err := session.Send(ctx, email); err != nil {
		return finish(StatusFailed, err)
	}

	return finish(StatusSent, nil)
}

// attachment resolves and loads the file bound to index.
// A miss is reported as attachment.ErrNotFound with a nil attachment.
func (w *worker) attachment(ctx context.Context, index int) (*mailer.Attachment, string, error) {
	key, err := w.resolver.Resolve(ctx, index)
	if err != nil {
		return nil, "", err
	}
	att, err := w.resolver.Load(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return att, key, nil
}

// open returns the worker's session, opening it on first use.
func (w *worker) open(ctx context.Context) (mailer.Session, error) {
	if w.session != nil {
		return w.session, nil
	}
	s, err := w.transport.Open(ctx)
	if err != nil {
		return nil, err
	}
	w.session = s
	return s, nil
}

// pace blocks until the rate limiter allows the next send.
func (w *worker) pace(ctx context.Context) error {
	if w.limiter == nil {
		return nil
	}
	return w.limiter.Wait(ctx)
}

func (w *worker) close(ctx context.Context) {
	if w.session == nil {
		return
	}
	if err := w.session.Close(); err != nil {
		w.engine.logger.DebugContext(ctx, "failed to close smtp session", slog.String("error", err.Error()))
	}
	w.session = nil
}
