// Package dispatch runs mail batches: one individually composed message per
// recipient, each bound to an attachment by its position in the list.
//
// For every non-blank line the engine resolves "{AttachmentDir}/{index+1}.jpg",
// composes the message, sends it over an SMTP session and records an Outcome.
// A failure for one recipient never stops the others, and the returned Report
// always holds exactly one Outcome per non-blank line, in list order.
//
// # Usage
//
//	engine := dispatch.New(storage.NewLocal(""),
//		dispatch.WithWorkers(4),
//		dispatch.WithLogger(log),
//	)
//	report, err := engine.Run(ctx, dispatch.Request{
//		RecipientListPath: "uploads/emails.txt",
//		Config:            cfg,
//	})
//
// # Errors
//
// Only two conditions stop a batch as a whole:
//
//   - an invalid request (*ValidationError, ErrInvalidRequest) is returned before
//     any storage or SMTP call and without a report;
//   - ErrFatalTransport, when the first SMTP session cannot be opened, is returned
//     with a report in which every recipient failed with the same detail.
//
// ErrCancelled accompanies a partial report when ctx ends mid-batch: sends in
// flight finish and recipients never attempted are marked failed.
//
// # Concurrency
//
// Every batch opens its sessions through a transport built from its own
// Config.SMTP(), so one Engine can serve senders with different servers and
// credentials. WithTransportFactory swaps the default SMTP constructor.
//
// WithWorkers(n) starts n senders, each with its own session. Attachment
// binding does not depend on timing, and outcomes are stored by index, so the
// report is identical to a sequential run apart from durations.
package dispatch
