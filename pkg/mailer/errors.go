package mailer

import "errors"

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrNoSender indicates no sender address was provided.
	ErrNoSender = errors.New("email must have a sender")

	// ErrUnknownFormat indicates an unsupported body format.
	ErrUnknownFormat = errors.New("unknown body format")

	// ErrRenderFailed indicates body rendering failed.
	ErrRenderFailed = errors.New("failed to render body")

	// ErrSendFailed indicates email sending failed.
	ErrSendFailed = errors.New("failed to send email")

	// ErrSessionClosed indicates a send on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)
