// Package smtp implements mailer.Transport on top of gomail.
//
// A Transport holds the server configuration; Open dials, negotiates TLS, and
// authenticates, returning a Session that sends any number of messages over the
// same connection:
//
//	tr, err := smtp.New(smtp.Config{
//		Host:     "smtp.example.com",
//		Port:     587,
//		Username: "team@example.com",
//		Password: os.Getenv("SMTP_PASSWORD"),
//	}, smtp.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	sess, err := tr.Open(ctx) // authentication errors surface here
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	err = sess.Send(ctx, email)
//
// With Secure=false (the default) the connection starts in plaintext and is
// upgraded with STARTTLS when the server offers it. Secure=true uses implicit TLS.
//
// Every failure is a *SendError carrying the Stage that failed; it also matches
// mailer.ErrSendFailed. Nothing is retried. A Session drops its connection after a
// failed send and dials again on the next one.
//
// Passwords are redacted from Config's String and LogValue output.
package smtp
