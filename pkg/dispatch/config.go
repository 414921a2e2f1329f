package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/batchmail/pkg/mailer"
	"github.com/dmitrymomot/batchmail/pkg/mailer/smtp"
)

// Config holds everything shared by the recipients of one batch.
// It is built once per batch and never modified by the engine.
type Config struct {
	FromEmail string `json:"fromEmail" yaml:"from_email" env:"FROM_EMAIL" validate:"required,email"`
	FromName  string `json:"fromName,omitempty" yaml:"from_name" env:"FROM_NAME"`

	// Password authenticates FromEmail against the SMTP server. Never logged.
	Password   string `json:"password" yaml:"password" env:"SMTP_PASSWORD" validate:"required"`
	SMTPServer string `json:"smtpServer" yaml:"smtp_server" env:"SMTP_SERVER" validate:"required"`
	SMTPPort   int    `json:"smtpPort" yaml:"smtp_port" env:"SMTP_PORT" validate:"required,min=1,max=65535"`

	// Secure selects implicit TLS. When false the session starts in plaintext
	// and upgrades with STARTTLS if the server offers it.
	Secure bool `json:"secure" yaml:"secure" env:"SMTP_SECURE"`

	Subject      string            `json:"subject" yaml:"subject" env:"SUBJECT"`
	BodyTemplate string            `json:"bodyTemplate" yaml:"body_template" env:"BODY_TEMPLATE"`
	BodyFormat   mailer.BodyFormat `json:"bodyFormat,omitempty" yaml:"body_format" env:"BODY_FORMAT" validate:"omitempty,oneof=html markdown"`
	Placeholder  string            `json:"placeholder,omitempty" yaml:"placeholder" env:"PLACEHOLDER"`
	Link         string            `json:"link" yaml:"link" env:"LINK" validate:"required"`

	AttachmentDir string `json:"attachmentDir" yaml:"attachment_dir" env:"ATTACHMENT_DIR" validate:"required"`
}

// Request is a batch whose recipient list lives in storage.
type Request struct {
	RecipientListPath string `json:"recipientListPath" yaml:"recipient_list" env:"RECIPIENT_LIST" validate:"required"`
	Config            Config `json:"config" yaml:",inline"`
}

// SMTP returns the transport configuration for c.
func (c Config) SMTP() smtp.Config {
	return smtp.Config{
		Host:     c.SMTPServer,
		Port:     c.SMTPPort,
		Username: c.FromEmail,
		Password: c.Password,
		Secure:   c.Secure,
	}
}

// Composer returns the composition settings for c.
func (c Config) Composer() mailer.ComposerConfig {
	return mailer.ComposerConfig{
		FromEmail:    c.FromEmail,
		FromName:     c.FromName,
		Subject:      c.Subject,
		BodyTemplate: c.BodyTemplate,
		Link:         c.Link,
		Placeholder:  c.Placeholder,
		Format:       c.BodyFormat,
	}
}

// LogValue implements slog.LogValuer and omits the password.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("from", c.FromEmail),
		slog.String("smtp_server", c.SMTPServer),
		slog.Int("smtp_port", c.SMTPPort),
		slog.Bool("secure", c.Secure),
		slog.String("attachment_dir", c.AttachmentDir),
		slog.String("password", redacted(c.Password)),
	)
}

// String omits the password.
func (c Config) String() string {
	return fmt.Sprintf("dispatch.Config{from=%s smtp=%s:%d secure=%t attachments=%s password=%s}",
		c.FromEmail, c.SMTPServer, c.SMTPPort, c.Secure, c.AttachmentDir, redacted(c.Password))
}

func redacted(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks c and returns a *ValidationError listing every invalid field.
func (c Config) Validate() error {
	return validationError(validate.Struct(c))
}

// Validate checks r, including its Config.
func (r Request) Validate() error {
	return validationError(validate.Struct(r))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Join(ErrInvalidRequest, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
