package mailer

import (
	"context"
	"io"
)

// Sender defines the minimal interface that email transports must implement.
// It accepts a fully-prepared Email and handles the actual delivery.
type Sender interface {
	// Send delivers an email message.
	// Returns an error if delivery fails; implementations do not retry.
	Send(ctx context.Context, email *Email) error
}

// Session is a Sender bound to one open connection.
// A Session is not safe for concurrent use.
type Session interface {
	Sender
	io.Closer
}

// Transport opens sessions to a mail server.
// Open must authenticate, so a returned Session is ready to send.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}
