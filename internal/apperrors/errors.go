// internal/apperrors/errors.go
package apperrors

import "fmt"

// ErrCampaignNotFound is returned when a campaign id is unknown to the
// registry. Terminal for the caller, not retryable.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// NewCampaignNotFound builds the sentinel for an unknown campaign id.
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrNotAwaitingApproval is returned when a resume decision arrives for a
// campaign that isn't suspended at the approval stage.
type ErrNotAwaitingApproval struct {
	CampaignID string
	Status     string
}

func (e *ErrNotAwaitingApproval) Error() string {
	return fmt.Sprintf("campaign %s is not awaiting approval (status: %s)", e.CampaignID, e.Status)
}

// NewNotAwaitingApproval builds the sentinel for a misplaced resume call.
func NewNotAwaitingApproval(id, status string) error {
	return &ErrNotAwaitingApproval{CampaignID: id, Status: status}
}
