package smtp

import (
	"context"
	"crypto/tls"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/batchmail/pkg/logger"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
)

// dialer opens an authenticated SMTP connection. *gomail.Dialer implements it.
type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Transport implements mailer.Transport over SMTP.
type Transport struct {
	dialer dialer
	logger *slog.Logger
	cfg    Config
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the transport logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Transport for the given server.
func New(cfg Config, opts ...Option) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Secure
	d.LocalName = cfg.LocalName
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: true} //nolint:gosec // opt-in for dev servers
	}

	t := &Transport{
		dialer: d,
		logger: logger.NewNope(),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Open dials and authenticates a new session.
// Authentication failures surface here, before any message is sent.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "smtp session failed", slog.Any("server", t.cfg), slog.String("error", err.Error()))
		return nil, &SendError{Stage: StageDial, Err: err}
	}

	t.logger.DebugContext(ctx, "smtp session opened", slog.Any("server", t.cfg))
	return &Session{transport: t, conn: conn}, nil
}

// Ping checks that a session can be established and closes it again.
func (t *Transport) Ping(ctx context.Context) error {
	sess, err := t.Open(ctx)
	if err != nil {
		return err
	}
	return sess.Close()
}

// dial runs the blocking gomail dial and gives up early when ctx is done.
// A connection that completes after cancellation is closed in the background.
func (t *Transport) dial(ctx context.Context) (gomail.SendCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		conn gomail.SendCloser
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := t.dialer.Dial()
		ch <- result{conn: conn, err: err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

var _ mailer.Transport = (*Transport)(nil)
