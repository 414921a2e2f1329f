package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/batchmail/pkg/logger"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
)

type sentMessage struct {
	from string
	to   []string
	raw  string
}

type fakeConn struct {
	dialer  *fakeDialer
	closed  bool
	sendErr error
}

func (c *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	c.dialer.mu.Lock()
	defer c.dialer.mu.Unlock()
	c.dialer.sent = append(c.dialer.sent, sentMessage{from: from, to: to, raw: buf.String()})
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	mu      sync.Mutex
	dials   int
	dialErr error
	sendErr error
	delay   time.Duration
	conns   []*fakeConn
	sent    []sentMessage
}

func (d *fakeDialer) Dial() (gomail.SendCloser, error) {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := &fakeConn{dialer: d, sendErr: d.sendErr}
	d.conns = append(d.conns, c)
	return c, nil
}

func newTestTransport(d *fakeDialer) *Transport {
	return &Transport{
		dialer: d,
		logger: logger.NewNope(),
		cfg:    Config{Host: "smtp.example.com", Port: 587, Username: "u", Password: "hunter2"},
	}
}

func testEmail(to string) *mailer.Email {
	return &mailer.Email{
		From:    "Photo Team <team@example.com>",
		To:      []string{to},
		Subject: "Your photo",
		HTML:    "<p>Click http://x</p>",
		Text:    "Click http://x",
		Headers: map[string]string{"Message-ID": "<id-1@example.com>"},
		Attachments: []mailer.Attachment{
			{Filename: "1.jpg", ContentType: "image/jpeg", Content: []byte("jpeg-bytes")},
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		tr, err := New(Config{Host: "smtp.example.com", Port: 465, Secure: true})
		require.NoError(t, err)

		d, ok := tr.dialer.(*gomail.Dialer)
		require.True(t, ok)
		require.True(t, d.SSL)
	})

	t.Run("plaintext by default", func(t *testing.T) {
		t.Parallel()
		tr, err := New(Config{Host: "smtp.example.com", Port: 587})
		require.NoError(t, err)
		require.False(t, tr.dialer.(*gomail.Dialer).SSL)
	})

	t.Run("missing host", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Port: 587})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Host: "smtp.example.com", Port: 0})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_RedactsPassword(t *testing.T) {
	t.Parallel()

	cfg := Config{Host: "smtp.example.com", Port: 587, Username: "u", Password: "hunter2"}
	require.NotContains(t, cfg.String(), "hunter2")

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, slog.LevelDebug)
	log.Info("config", slog.Any("server", cfg))
	require.NotContains(t, buf.String(), "hunter2")
	require.Contains(t, buf.String(), "smtp.example.com:587")
}

func TestTransport_Open(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		d := &fakeDialer{}
		sess, err := newTestTransport(d).Open(context.Background())
		require.NoError(t, err)
		require.NotNil(t, sess)
		require.Equal(t, 1, d.dials)
	})

	t.Run("auth failure", func(t *testing.T) {
		t.Parallel()
		authErr := errors.New("535 5.7.8 authentication failed")
		d := &fakeDialer{dialErr: authErr}

		_, err := newTestTransport(d).Open(context.Background())
		require.ErrorIs(t, err, authErr)
		require.ErrorIs(t, err, mailer.ErrSendFailed)

		var sendErr *SendError
		require.ErrorAs(t, err, &sendErr)
		require.Equal(t, StageDial, sendErr.Stage)
	})

	t.Run("cancelled before dial", func(t *testing.T) {
		t.Parallel()
		d := &fakeDialer{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestTransport(d).Open(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 0, d.dials)
	})

	t.Run("cancelled during dial", func(t *testing.T) {
		t.Parallel()
		d := &fakeDialer{delay: 200 * time.Millisecond}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := newTestTransport(d).Open(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTransport_Ping(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	require.NoError(t, newTestTransport(d).Ping(context.Background()))
	require.Len(t, d.conns, 1)
	require.True(t, d.conns[0].closed)
}

func TestSession_Send(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	sess, err := newTestTransport(d).Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, sess.Send(context.Background(), testEmail("alice@example.com")))
	require.NoError(t, sess.Send(context.Background(), testEmail("bob@example.com")))

	// Both messages go over the same connection.
	require.Equal(t, 1, d.dials)
	require.Len(t, d.sent, 2)

	first := d.sent[0]
	require.Equal(t, "team@example.com", first.from)
	require.Equal(t, []string{"alice@example.com"}, first.to)
	require.Contains(t, first.raw, "Subject: Your photo")
	require.Contains(t, first.raw, "To: alice@example.com")
	require.Contains(t, first.raw, "Message-ID: <id-1@example.com>")
	require.Contains(t, first.raw, "multipart/mixed")
	require.Contains(t, first.raw, "multipart/alternative")
	require.Contains(t, first.raw, `filename="1.jpg"`)
	require.Contains(t, first.raw, "image/jpeg")

	require.NoError(t, sess.Close())
	require.True(t, d.conns[0].closed)
}

func TestSession_SendDisplayNameWithComma(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	sess, err := newTestTransport(d).Open(context.Background())
	require.NoError(t, err)

	email := testEmail("alice@example.com")
	email.From = mailer.Recipient("Smith, John", "team@example.com")
	require.NoError(t, sess.Send(context.Background(), email))

	require.Len(t, d.sent, 1)
	require.Equal(t, "team@example.com", d.sent[0].from)
	require.Contains(t, d.sent[0].raw, `From: "Smith, John" <team@example.com>`)
	require.NoError(t, sess.Close())
}

func TestSession_SendFailureRedials(t *testing.T) {
	t.Parallel()

	rcptErr := errors.New("550 5.1.1 mailbox unavailable")
	d := &fakeDialer{sendErr: rcptErr}
	sess, err := newTestTransport(d).Open(context.Background())
	require.NoError(t, err)

	err = sess.Send(context.Background(), testEmail("nobody@example.com"))
	require.ErrorIs(t, err, rcptErr)
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.True(t, d.conns[0].closed)

	d.mu.Lock()
	d.sendErr = nil
	d.mu.Unlock()

	require.NoError(t, sess.Send(context.Background(), testEmail("alice@example.com")))
	require.Equal(t, 2, d.dials)
	require.Len(t, d.sent, 1)
}

func TestSession_SendInvalidMessage(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	sess, err := newTestTransport(d).Open(context.Background())
	require.NoError(t, err)

	err = sess.Send(context.Background(), &mailer.Email{From: "team@example.com"})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)

	err = sess.Send(context.Background(), &mailer.Email{From: "not an address", To: []string{"a@example.com"}})
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, StageMessage, sendErr.Stage)

	require.Empty(t, d.sent)
}

func TestSession_Closed(t *testing.T) {
	t.Parallel()

	sess, err := newTestTransport(&fakeDialer{}).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	err = sess.Send(context.Background(), testEmail("alice@example.com"))
	require.ErrorIs(t, err, mailer.ErrSessionClosed)
}

func TestBuildMessage_HTMLOnly(t *testing.T) {
	t.Parallel()

	email := &mailer.Email{
		From:    "team@example.com",
		To:      []string{"a@example.com"},
		Subject: "Hi",
		HTML:    "<p>Hi</p>",
	}
	from, err := mail.ParseAddress(email.From)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = buildMessage(email, from).WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	require.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	require.False(t, strings.Contains(raw, "multipart/"), "single-part message expected")
}
