package dispatch

import "time"

// Status is the terminal state of one recipient.
type Status string

const (
	StatusSent                Status = "sent"
	StatusSkippedNoAttachment Status = "skipped_no_attachment"
	StatusFailed              Status = "failed"
)

// Outcome records what happened to one recipient.
type Outcome struct {
	Index     int    `json:"index"`
	Recipient string `json:"recipient"`
	Status    Status `json:"status"`
	Detail    string `json:"detail,omitempty"`

	// Attachment is the key of the attached file, empty when none was attached.
	Attachment string `json:"attachment,omitempty"`

	// SentWithoutAttachment marks a recipient whose file was missing but whose
	// message was still attempted.
	SentWithoutAttachment bool `json:"sentWithoutAttachment"`

	Duration time.Duration `json:"durationNs,omitempty"`
}

// Report is the result of one batch. Outcomes are ordered by recipient index.
type Report struct {
	BatchID    string    `json:"batchId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	SentCount   int `json:"sentCount"`
	FailedCount int `json:"failedCount"`

	// SkippedAttachmentCount counts recipients whose attachment was missing,
	// whether their message was sent without it or skipped.
	SkippedAttachmentCount int `json:"skippedAttachmentCount"`

	Cancelled bool      `json:"cancelled,omitempty"`
	Outcomes  []Outcome `json:"outcomes"`
}

// HasFailures reports whether any recipient failed.
func (r *Report) HasFailures() bool {
	return r.FailedCount > 0
}

func (r *Report) tally() {
	r.SentCount, r.FailedCount, r.SkippedAttachmentCount = 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSent:
			r.SentCount++
		case StatusFailed:
			r.FailedCount++
		}
		if o.SentWithoutAttachment || o.Status == StatusSkippedNoAttachment {
			r.SkippedAttachmentCount++
		}
	}
}
