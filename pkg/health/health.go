package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/batchmail/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more checks failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc verifies one dependency of a batch.
type CheckFunc func(ctx context.Context) error

// Checks is a map of named check functions.
type Checks map[string]CheckFunc

// Response is the aggregated result of a set of checks.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check represents the status of a single check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Healthy reports whether every check passed.
func (r *Response) Healthy() bool {
	return r.Status == StatusHealthy
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures check execution.
type Option func(*config)

// WithTimeout sets the timeout shared by all checks.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes all checks in parallel and returns the aggregated result.
// The error wraps ErrCheckFailed when any check fails, and ErrCheckTimeout
// as well when the shared timeout expired.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Response, error) {
	cfg := newConfig(opts...)
	resp := &Response{Status: StatusHealthy, Checks: make(map[string]Check, len(checks))}
	if len(checks) == 0 {
		return resp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	names := slices.Sorted(maps.Keys(checks))
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			errs[i] = checks[name](ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, name := range names {
		if errs[i] == nil {
			resp.Checks[name] = Check{Status: StatusHealthy}
			continue
		}
		failed++
		resp.Checks[name] = Check{Status: StatusUnhealthy, Error: errs[i].Error()}
		cfg.logger.WarnContext(ctx, "preflight check failed",
			slog.String("check", name),
			slog.String("error", errs[i].Error()),
		)
	}
	if failed == 0 {
		return resp, nil
	}

	resp.Status = StatusUnhealthy
	err := fmt.Errorf("%w: %d of %d", ErrCheckFailed, failed, len(names))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errors.Join(err, ErrCheckTimeout)
	}
	return resp, err
}
