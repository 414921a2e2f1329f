package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/batchmail/pkg/dispatch"
	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/storage"
)

// options is everything one invocation needs.
// Precedence: command-line flags, then the job file, then the environment.
type options struct {
	dispatch.Request `yaml:",inline"`

	Workers           int            `yaml:"workers"`
	Rate              time.Duration  `yaml:"rate"`
	RequireAttachment bool           `yaml:"require_attachment"`
	S3                storage.Config `yaml:"s3"`
	LogLevel          string         `yaml:"log_level"`

	SentryDSN string `yaml:"-"`
	SentryEnv string `yaml:"-"`
	JobFile   string `yaml:"-"`
	Check     bool   `yaml:"-"`
}

func loadOptions(args []string, getenv func(string) string, output io.Writer) (*options, error) {
	opts := envOptions(getenv)
	if err := parseFlags(opts, args, output); err != nil {
		return nil, err
	}
	if opts.JobFile == "" {
		return opts, nil
	}

	// Reload with the job file underneath the flags.
	withJob := envOptions(getenv)
	if err := readJob(opts.JobFile, withJob); err != nil {
		return nil, err
	}
	if err := parseFlags(withJob, args, output); err != nil {
		return nil, err
	}
	withJob.JobFile = opts.JobFile
	return withJob, nil
}

func envOptions(getenv func(string) string) *options {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	envInt := func(key string, fallback int) int {
		if n, err := strconv.Atoi(getenv(key)); err == nil {
			return n
		}
		return fallback
	}
	envBool := func(key string) bool {
		b, _ := strconv.ParseBool(getenv(key))
		return b
	}

	o := &options{
		Workers:           envInt("WORKERS", 1),
		RequireAttachment: envBool("REQUIRE_ATTACHMENT"),
		LogLevel:          env("LOG_LEVEL", "info"),
		SentryDSN:         getenv("SENTRY_DSN"),
		SentryEnv:         env("SENTRY_ENVIRONMENT", "production"),
		S3: storage.Config{
			Bucket:    getenv("S3_BUCKET"),
			AccessKey: getenv("S3_ACCESS_KEY"),
			SecretKey: getenv("S3_SECRET_KEY"),
			Endpoint:  getenv("S3_ENDPOINT"),
			Region:    env("S3_REGION", storage.DefaultRegion),
			Prefix:    getenv("S3_PREFIX"),
			PathStyle: envBool("S3_PATH_STYLE"),
		},
	}
	if d, err := time.ParseDuration(getenv("RATE")); err == nil {
		o.Rate = d
	}

	o.RecipientListPath = getenv("RECIPIENT_LIST")
	o.Config = dispatch.Config{
		FromEmail:     getenv("FROM_EMAIL"),
		FromName:      getenv("FROM_NAME"),
		Password:      getenv("SMTP_PASSWORD"),
		SMTPServer:    getenv("SMTP_SERVER"),
		SMTPPort:      envInt("SMTP_PORT", 0),
		Secure:        envBool("SMTP_SECURE"),
		Subject:       getenv("SUBJECT"),
		BodyTemplate:  getenv("BODY_TEMPLATE"),
		BodyFormat:    mailer.BodyFormat(env("BODY_FORMAT", string(mailer.FormatHTML))),
		Placeholder:   env("PLACEHOLDER", mailer.DefaultPlaceholder),
		Link:          getenv("LINK"),
		AttachmentDir: getenv("ATTACHMENT_DIR"),
	}
	return o
}

// parseFlags binds flags to o, using o's current values as defaults.
func parseFlags(o *options, args []string, output io.Writer) error {
	fs := flag.NewFlagSet("batchmail", flag.ContinueOnError)
	fs.SetOutput(output)

	c := &o.Config
	fs.StringVar(&o.RecipientListPath, "list", o.RecipientListPath, "recipient list, one address per line")
	fs.StringVar(&c.AttachmentDir, "attachments", c.AttachmentDir, "directory holding 1.jpg, 2.jpg, ...")
	fs.StringVar(&c.FromEmail, "from", c.FromEmail, "sender address, also the SMTP username")
	fs.StringVar(&c.FromName, "from-name", c.FromName, "sender display name")
	fs.StringVar(&c.SMTPServer, "smtp-server", c.SMTPServer, "SMTP host")
	fs.IntVar(&c.SMTPPort, "smtp-port", c.SMTPPort, "SMTP port")
	fs.BoolVar(&c.Secure, "secure", c.Secure, "use implicit TLS")
	fs.StringVar(&c.Subject, "subject", c.Subject, "message subject")
	fs.StringVar(&c.BodyTemplate, "body", c.BodyTemplate, "body template")
	bodyFile := fs.String("body-file", "", "read the body template from a file")
	format := fs.String("format", string(c.BodyFormat), "body format: html or markdown")
	fs.StringVar(&c.Placeholder, "placeholder", c.Placeholder, "token replaced by the link")
	fs.StringVar(&c.Link, "link", c.Link, "link substituted into the body")

	fs.IntVar(&o.Workers, "workers", o.Workers, "concurrent SMTP sessions")
	fs.DurationVar(&o.Rate, "rate", o.Rate, "minimum interval between sends")
	fs.BoolVar(&o.RequireAttachment, "require-attachment", o.RequireAttachment, "skip recipients without an attachment")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "debug, info, warn or error")
	fs.StringVar(&o.JobFile, "job", o.JobFile, "YAML job file")
	fs.BoolVar(&o.Check, "check", false, "verify the SMTP login and exit")

	fs.StringVar(&o.S3.Bucket, "s3-bucket", o.S3.Bucket, "read the list and attachments from this S3 bucket")
	fs.StringVar(&o.S3.Endpoint, "s3-endpoint", o.S3.Endpoint, "S3-compatible endpoint URL")
	fs.StringVar(&o.S3.Region, "s3-region", o.S3.Region, "S3 region")
	fs.StringVar(&o.S3.Prefix, "s3-prefix", o.S3.Prefix, "key prefix inside the bucket")
	fs.BoolVar(&o.S3.PathStyle, "s3-path-style", o.S3.PathStyle, "use path-style S3 URLs")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	c.BodyFormat = mailer.BodyFormat(*format)
	if *bodyFile != "" {
		data, err := os.ReadFile(*bodyFile)
		if err != nil {
			return fmt.Errorf("read body file: %w", err)
		}
		c.BodyTemplate = string(data)
	}
	return nil
}

func readJob(path string, o *options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse job file %s: %w", path, err)
	}
	return nil
}

func (o *options) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (o *options) policy() dispatch.AttachmentPolicy {
	if o.RequireAttachment {
		return dispatch.PolicyRequire
	}
	return dispatch.PolicyOptional
}
