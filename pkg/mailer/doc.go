// Package mailer defines the message model and transport contracts of the batch
// mailer, and composes per-recipient messages from a shared template.
//
// # Architecture
//
// The package consists of three parts:
//
//   - Email and Attachment: a fully prepared message, ready for any transport
//   - Composer: renders the shared body once and stamps out one Email per recipient
//   - Sender, Session, Transport: the delivery contracts implemented by pkg/mailer/smtp
//
// # Composing
//
//	c, err := mailer.NewComposer(mailer.ComposerConfig{
//		FromEmail:    "team@example.com",
//		FromName:     "Team",
//		Subject:      "Your photo",
//		BodyTemplate: `<p>Your photo is attached. <a href="{link1}">Book again</a></p>`,
//		Link:         "https://example.com/book",
//	})
//	if err != nil {
//		return err
//	}
//
//	email, err := c.Compose("user@example.com", &mailer.Attachment{
//		Filename:    "1.jpg",
//		ContentType: "image/jpeg",
//		Content:     data,
//	})
//
// The placeholder (default "{link1}") is replaced exactly once. A template without
// the placeholder is sent verbatim. With Format set to FormatMarkdown the template
// is converted to HTML with goldmark after substitution. Every message carries a
// plain-text alternative derived from the HTML body.
//
// # Sending
//
// A Transport opens authenticated Sessions. A Session sends messages one at a time
// over the same connection and must not be shared between goroutines:
//
//	sess, err := transport.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	if err := sess.Send(ctx, email); err != nil {
//		// errors.Is(err, mailer.ErrSendFailed)
//	}
//
// # Errors
//
//   - ErrNoRecipient: no recipient specified
//   - ErrNoSender: no sender specified
//   - ErrUnknownFormat: unsupported body format
//   - ErrRenderFailed: markdown conversion failed
//   - ErrSendFailed: delivery failed
//   - ErrSessionClosed: send on a closed session
package mailer
