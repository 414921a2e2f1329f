package smtp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/mail"

	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/batchmail/pkg/mailer"
)

// Session is one SMTP connection used for consecutive sends.
// It is not safe for concurrent use.
//
// After a failed exchange the server's transaction state is unknown, so the
// connection is dropped and the next Send dials a fresh one.
type Session struct {
	transport *Transport
	conn      gomail.SendCloser
	closed    bool
}

// Send delivers one message with a single MAIL/RCPT/DATA exchange. No retries.
func (s *Session) Send(ctx context.Context, email *mailer.Email) error {
	if s.closed {
		return &SendError{Stage: StageSend, Err: mailer.ErrSessionClosed}
	}
	if err := ctx.Err(); err != nil {
		return &SendError{Stage: StageSend, Err: err}
	}
	if err := email.Validate(); err != nil {
		return &SendError{Stage: StageMessage, Err: err}
	}

	from, err := mail.ParseAddress(email.From)
	if err != nil {
		return &SendError{Stage: StageMessage, Err: fmt.Errorf("parse sender: %w", err)}
	}
	msg := buildMessage(email, from)

	if s.conn == nil {
		conn, err := s.transport.dial(ctx)
		if err != nil {
			return &SendError{Stage: StageDial, Err: err}
		}
		s.conn = conn
	}

	if err := s.conn.Send(from.Address, email.To, msg); err != nil {
		s.drop()
		return &SendError{Stage: StageSend, Err: err}
	}
	return nil
}

// Close ends the session with QUIT. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Session) drop() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.transport.logger.Debug("smtp connection close failed", slog.String("error", err.Error()))
	}
	s.conn = nil
}

// buildMessage converts an Email into a MIME message.
// With both bodies present the result is multipart/alternative (text first, then
// HTML); attachments wrap it in multipart/mixed.
func buildMessage(email *mailer.Email, from *mail.Address) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	for k, v := range email.Headers {
		m.SetHeader(k, v)
	}

	switch {
	case email.Text != "" && email.HTML != "":
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	case email.HTML != "":
		m.SetBody("text/html", email.HTML)
	default:
		m.SetBody("text/plain", email.Text)
	}

	for _, a := range email.Attachments {
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(a.Content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}

	return m
}

var _ mailer.Session = (*Session)(nil)
