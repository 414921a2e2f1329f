package smtp

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/batchmail/pkg/mailer"
)

// ErrInvalidConfig indicates a missing or malformed SMTP configuration.
var ErrInvalidConfig = errors.New("smtp: invalid configuration")

// Stage names the step of an SMTP exchange that failed.
type Stage string

const (
	StageDial    Stage = "dial"    // connect, TLS, or authentication
	StageMessage Stage = "message" // the message itself was unusable
	StageSend    Stage = "send"    // MAIL, RCPT, or DATA
)

// SendError reports a failed delivery.
// It matches mailer.ErrSendFailed and the underlying cause with errors.Is.
type SendError struct {
	Err   error
	Stage Stage
}

func (e *SendError) Error() string {
	return fmt.Sprintf("smtp %s: %v", e.Stage, e.Err)
}

// Unwrap exposes both the package-level sentinel and the cause.
func (e *SendError) Unwrap() []error {
	return []error{mailer.ErrSendFailed, e.Err}
}
