// internal/model/send_job.go
package model

// SendJob is the payload queued for asynchronous channel delivery. The
// delivery worker consumes these from the outreach_sends queue.
type SendJob struct {
	RunID      string `json:"run_id"`
	TargetHash string `json:"target_hash"`
	Channel    string `json:"channel"`
	To         string `json:"to"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body"`
}
