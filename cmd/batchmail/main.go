// Command batchmail sends one personalised email per recipient of a list and
// prints a JSON report of the outcome for each of them.
//
//	batchmail -list emails.txt -attachments photos/ -from me@example.com \
//	  -smtp-server smtp.example.com -smtp-port 587 -link https://example.com/gallery \
//	  -subject "Your photo" -body "Download it here: {link1}"
//
// The SMTP password is read from SMTP_PASSWORD (or a .env file), never from a flag.
// With -check it only verifies the SMTP login and the recipient list.
// Exit status is 0 when every message was sent, 1 when the batch could not
// start, and 2 when the report contains failures.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dmitrymomot/batchmail/pkg/dispatch"
	"github.com/dmitrymomot/batchmail/pkg/health"
	"github.com/dmitrymomot/batchmail/pkg/logger"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/mailer/smtp"
	"github.com/dmitrymomot/batchmail/pkg/storage"
)

const (
	exitOK       = 0
	exitError    = 1
	exitFailures = 2
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// transport is what the command needs from *smtp.Transport.
type transport interface {
	mailer.Transport
	Ping(ctx context.Context) error
}

// deps lets tests replace the network-facing pieces.
type deps struct {
	transport func(smtp.Config, *slog.Logger) (transport, error)
	storage   func(*options) (storage.Storage, error)
}

var defaultDeps = deps{
	transport: func(cfg smtp.Config, log *slog.Logger) (transport, error) {
		return smtp.New(cfg, smtp.WithLogger(log))
	},
	storage: newStorage,
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	return runWith(ctx, defaultDeps, args, getenv, stdout, stderr)
}

func runWith(ctx context.Context, d deps, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	opts, err := loadOptions(args, getenv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "batchmail:", err)
		return exitError
	}

	log, flush := newLogger(opts, stderr)
	defer flush()

	if opts.Check {
		if err := opts.Config.Validate(); err != nil {
			fmt.Fprintln(stderr, "batchmail:", err)
			return exitError
		}
		return check(ctx, d, opts, log, stdout, stderr)
	}

	// Validate before touching storage or the network.
	if err := opts.Request.Validate(); err != nil {
		fmt.Fprintln(stderr, "batchmail:", err)
		return exitError
	}

	store, err := d.storage(opts)
	if err != nil {
		fmt.Fprintln(stderr, "batchmail: storage:", err)
		return exitError
	}

	engine := dispatch.New(store,
		dispatch.WithTransportFactory(func(cfg smtp.Config) (mailer.Transport, error) {
			return d.transport(cfg, log)
		}),
		dispatch.WithWorkers(opts.Workers),
		dispatch.WithRateLimit(opts.Rate),
		dispatch.WithAttachmentPolicy(opts.policy()),
		dispatch.WithLogger(log),
	)

	report, err := engine.Run(ctx, opts.Request)
	if report == nil {
		fmt.Fprintln(stderr, "batchmail:", err)
		return exitError
	}
	if err != nil {
		log.WarnContext(ctx, "batch incomplete", slog.String("error", err.Error()))
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(stderr, "batchmail: write report:", err)
		return exitError
	}

	if report.HasFailures() {
		return exitFailures
	}
	return exitOK
}

// check verifies the SMTP login and the recipient list without sending anything.
func check(ctx context.Context, d deps, opts *options, log *slog.Logger, stdout, stderr io.Writer) int {
	tr, err := d.transport(opts.Config.SMTP(), log)
	if err != nil {
		fmt.Fprintln(stderr, "batchmail: smtp:", err)
		return exitError
	}

	checks := health.Checks{"smtp": health.SMTP(tr)}
	if opts.RecipientListPath != "" {
		store, err := d.storage(opts)
		if err != nil {
			fmt.Fprintln(stderr, "batchmail: storage:", err)
			return exitError
		}
		checks["recipient_list"] = health.File(store, opts.RecipientListPath)
	}

	resp, err := health.Run(ctx, checks, health.WithLogger(log))
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)

	if err != nil {
		fmt.Fprintln(stderr, "batchmail:", err)
		return exitError
	}
	return exitOK
}

func newLogger(opts *options, stderr io.Writer) (*slog.Logger, func()) {
	return logger.NewWithSentry(stderr, opts.level(), logger.SentryConfig{
		DSN:         opts.SentryDSN,
		Environment: opts.SentryEnv,
		MinLevel:    slog.LevelWarn,
	}, logger.BatchIDExtractor())
}

func newStorage(opts *options) (storage.Storage, error) {
	if opts.S3.Bucket == "" {
		return storage.NewLocal(""), nil
	}
	return storage.New(opts.S3)
}
