package health

import "errors"

var (
	// ErrCheckFailed is returned when one or more preflight checks fail.
	ErrCheckFailed = errors.New("health: preflight check failed")

	// ErrCheckTimeout is joined to ErrCheckFailed when the shared timeout expired.
	ErrCheckTimeout = errors.New("health: preflight check timed out")
)
