package dispatch

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRequest indicates missing or malformed batch configuration.
	// No recipient is processed when it is returned.
	ErrInvalidRequest = errors.New("dispatch: invalid request")

	// ErrFatalTransport indicates no SMTP session could be established.
	// It is returned together with a report in which every recipient failed.
	ErrFatalTransport = errors.New("dispatch: smtp session could not be established")

	// ErrCancelled indicates the batch was stopped before every recipient was attempted.
	// It is returned together with a partial report.
	ErrCancelled = errors.New("dispatch: batch cancelled")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Rule
}

// ValidationError lists every invalid field of a request.
// It matches ErrInvalidRequest with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return ErrInvalidRequest.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
