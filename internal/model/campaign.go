// internal/model/campaign.go
package model

import "time"

// Campaign lifecycle statuses.
const (
	CampaignCreated   = "created"
	CampaignRunning   = "running"
	CampaignWaiting   = "waiting"
	CampaignCompleted = "completed"
	CampaignFailed    = "failed"
)

// Stage statuses.
const (
	StagePending   = "pending"
	StageRunning   = "running"
	StageWaiting   = "waiting"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// Pipeline stages, in execution order.
const (
	StageIngestion   = "ingestion"
	StagePersona     = "persona"
	StageDrafting    = "drafting"
	StageScoring     = "scoring"
	StageApproval    = "approval"
	StageExecution   = "execution"
	StagePersistence = "persistence"
)

// Stages lists every stage in pipeline order.
var Stages = []string{
	StageIngestion, StagePersona, StageDrafting, StageScoring,
	StageApproval, StageExecution, StagePersistence,
}

// DefaultChannels is the channel set drafts are generated for when the
// deployment doesn't override it.
var DefaultChannels = []string{"email", "sms", "linkedin", "instagram"}

// CampaignInput is the raw submission that starts a campaign.
type CampaignInput struct {
	Type    string `json:"type"` // "url", "text" or "file"
	Content string `json:"content"`
}

// StageEntry is one row of a campaign's stage table.
type StageEntry struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Campaign is the registry record for one end-to-end pipeline run.
type Campaign struct {
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	CurrentStage string                `json:"current_stage"`
	Input        CampaignInput         `json:"input"`
	Stages       map[string]StageEntry `json:"stages"`
	State        *PipelineState        `json:"state,omitempty"`
	Error        string                `json:"error,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Clone returns a deep copy safe to hand to callers outside the registry.
func (c *Campaign) Clone() Campaign {
	out := *c
	out.Stages = make(map[string]StageEntry, len(c.Stages))
	for k, v := range c.Stages {
		out.Stages[k] = v
	}
	if c.State != nil {
		st := c.State.Clone()
		out.State = &st
	}
	return out
}
