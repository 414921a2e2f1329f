package mailer

import (
	"net/mail"
	"strings"
)

// Recipient formats a name and email into RFC 5322 address format.
// Returns the bare email when name is empty. Otherwise the name is quoted
// or encoded as needed, so "Smith, John" stays a single mailbox.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers     map[string]string // Custom headers (e.g. Message-ID)
	Subject     string            // Email subject, may be empty
	HTML        string            // HTML body content
	Text        string            // Plain text alternative
	From        string            // Sender, "addr" or "Name <addr>"
	To          []string          // Recipients (at least one required)
	Attachments []Attachment      // File attachments
}

// Validate checks the fields every transport needs.
func (e *Email) Validate() error {
	if e == nil || len(e.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range e.To {
		if strings.TrimSpace(to) == "" {
			return ErrNoRecipient
		}
	}
	if e.From == "" {
		return ErrNoSender
	}
	return nil
}

// Attachment represents an email attachment.
type Attachment struct {
	Filename    string // Display name for the attachment
	ContentType string // MIME type (e.g., "image/jpeg")
	Content     []byte // Raw file content
}
