package dispatch_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/batchmail/pkg/dispatch"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/mailer/smtp"
	"github.com/dmitrymomot/batchmail/pkg/storage"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// fakeTransport records every message and can fail selected recipients.
type fakeTransport struct {
	mu       sync.Mutex
	openErr  error
	failFor  map[string]error
	opens    int
	closes   int
	sent     []*mailer.Email
	configs  []smtp.Config
	overlaps atomic.Int32
}

// withTransport makes the engine use tr for every batch and records the
// SMTP settings each batch asked for.
func withTransport(tr *fakeTransport) dispatch.Option {
	return dispatch.WithTransportFactory(func(cfg smtp.Config) (mailer.Transport, error) {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		tr.configs = append(tr.configs, cfg)
		return tr, nil
	})
}

func (t *fakeTransport) Open(ctx context.Context) (mailer.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opens++
	if t.openErr != nil {
		return nil, t.openErr
	}
	return &fakeSession{t: t}, nil
}

func (t *fakeTransport) sentTo() map[string]*mailer.Email {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]*mailer.Email, len(t.sent))
	for _, e := range t.sent {
		out[e.To[0]] = e
	}
	return out
}

func (t *fakeTransport) stats() (opens, closes, sent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens, t.closes, len(t.sent)
}

type fakeSession struct {
	t     *fakeTransport
	inUse atomic.Int32
}

func (s *fakeSession) Send(ctx context.Context, e *mailer.Email) error {
	if s.inUse.Add(1) > 1 {
		s.t.overlaps.Add(1)
	}
	defer s.inUse.Add(-1)

	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if err, ok := s.t.failFor[e.To[0]]; ok {
		return err
	}
	s.t.sent = append(s.t.sent, e)
	return nil
}

func (s *fakeSession) Close() error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.closes++
	return nil
}

// countingStore counts every storage call.
type countingStore struct {
	storage.Storage
	calls atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.calls.Add(1)
	return s.Storage.Get(ctx, key)
}

func (s *countingStore) Exists(ctx context.Context, key string) (bool, error) {
	s.calls.Add(1)
	return s.Storage.Exists(ctx, key)
}

// failingStore fails every lookup.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrAccessDenied
}

func (failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.Join(storage.ErrAccessDenied, errors.New("403"))
}

// attachmentDir creates a directory holding {i}.jpg for every i in numbers.
func attachmentDir(t *testing.T, numbers ...int) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range numbers {
		name := filepath.Join(dir, strconv.Itoa(n)+".jpg")
		require.NoError(t, os.WriteFile(name, jpegHeader, 0o600))
	}
	return dir
}

func validConfig(dir string) dispatch.Config {
	return dispatch.Config{
		FromEmail:     "sender@example.com",
		FromName:      "Sender",
		Password:      "s3cret-pa55",
		SMTPServer:    "smtp.example.com",
		SMTPPort:      587,
		Subject:       "Your photo",
		BodyTemplate:  "<p>Click {link1}</p>",
		Link:          "http://x",
		AttachmentDir: dir,
	}
}
