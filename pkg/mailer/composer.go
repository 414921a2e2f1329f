package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dmitrymomot/batchmail/pkg/sanitizer"
)

// BodyFormat selects how the body template is interpreted.
type BodyFormat string

const (
	// FormatHTML sends the template as HTML after link substitution.
	FormatHTML BodyFormat = "html"

	// FormatMarkdown converts the template to HTML after link substitution.
	FormatMarkdown BodyFormat = "markdown"
)

// DefaultPlaceholder is the token replaced by the link in the body template.
const DefaultPlaceholder = "{link1}"

// ComposerConfig holds the parts of a message shared by every recipient of a batch.
type ComposerConfig struct {
	FromEmail    string
	FromName     string
	Subject      string
	BodyTemplate string
	Link         string
	Placeholder  string     // Default: DefaultPlaceholder
	Format       BodyFormat // Default: FormatHTML
}

// Composer builds per-recipient messages from a shared template.
// The body is rendered once at construction; Compose only varies the
// recipient, the attachment, and the Message-ID.
type Composer struct {
	from    string
	domain  string
	subject string
	html    string
	text    string
}

// NewComposer renders the body template and returns a Composer.
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	if cfg.Format == "" {
		cfg.Format = FormatHTML
	}

	body := RenderBody(cfg.BodyTemplate, cfg.Placeholder, cfg.Link)

	switch cfg.Format {
	case FormatHTML:
	case FormatMarkdown:
		rendered, err := markdownToHTML(body)
		if err != nil {
			return nil, errors.Join(ErrRenderFailed, err)
		}
		body = rendered
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}

	_, domain, _ := strings.Cut(cfg.FromEmail, "@")
	if domain == "" {
		domain = "localhost"
	}

	return &Composer{
		from:    Recipient(cfg.FromName, cfg.FromEmail),
		domain:  domain,
		subject: cfg.Subject,
		html:    body,
		text:    sanitizer.PlainText(body),
	}, nil
}

// Compose builds the message for one recipient.
// att may be nil; a message without an attachment is still valid.
func (c *Composer) Compose(to string, att *Attachment) (*Email, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, ErrNoRecipient
	}

	email := &Email{
		Headers: map[string]string{
			"Message-ID": fmt.Sprintf("<%s@%s>", uuid.NewString(), c.domain),
		},
		From:    c.from,
		To:      []string{to},
		Subject: c.subject,
		HTML:    c.html,
		Text:    c.text,
	}
	if att != nil {
		email.Attachments = []Attachment{*att}
	}

	return email, nil
}

// RenderBody replaces the first occurrence of placeholder in tmpl with link.
// A template without the placeholder is returned unchanged.
func RenderBody(tmpl, placeholder, link string) string {
	if placeholder == "" {
		return tmpl
	}
	return strings.Replace(tmpl, placeholder, link, 1)
}

var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		html.WithUnsafe(), // raw HTML in templates passes through
		html.WithHardWraps(),
	),
)

func markdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
