// Package health runs preflight checks before a batch is sent.
//
// Checks are plain func(context.Context) error values executed in parallel
// under one shared timeout. The command uses them for its -check mode to
// verify the SMTP login and the recipient list without sending anything.
//
//	resp, err := health.Run(ctx, health.Checks{
//		"smtp":           health.SMTP(transport),
//		"recipient_list": health.File(store, "uploads/emails.txt"),
//	}, health.WithTimeout(15*time.Second))
//	if err != nil {
//		// resp.Checks holds the per-check errors
//	}
package health
