// internal/model/state.go
package model

import "time"

// ToneProfile is the structured persona output that drives draft generation.
type ToneProfile struct {
	FormalityLevel     string   `json:"formality_level"` // casual | semi-formal | formal
	CommunicationStyle string   `json:"communication_style"`
	LanguageHints      string   `json:"language_hints"`
	Interests          []string `json:"interests"`
	ToneKeywords       []string `json:"tone_keywords"`
	RecentActivity     string   `json:"recent_activity,omitempty"`
}

// Draft is one generated message for one channel.
type Draft struct {
	Channel  string   `json:"channel"`
	Subject  string   `json:"subject,omitempty"` // email only
	Body     string   `json:"body"`
	Score    *float64 `json:"score,omitempty"` // 0-10, set by scoring
	Approved bool     `json:"approved"`
	Sent     bool     `json:"sent"`
}

// ExecutionResult records the outcome of one channel send. Failures land
// here instead of aborting the run; one channel failing must not block the
// others.
type ExecutionResult struct {
	Channel   string    `json:"channel"`
	Status    string    `json:"status"` // sent | queued | mock_sent | failed
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineState is the payload threaded through every stage worker.
//
// Field lifecycle:
//
//	RawInput, RawProfileText   ingestion -> persona (cleared after persona)
//	TargetIdentifier, TargetHash, Company, Role, Industry, Links
//	                           ingestion -> persistence
//	Tone, SimilarPersonas      persona   -> drafting
//	Drafts                     drafting  -> scoring -> approval -> execution
//	ApprovedChannels           approval  -> execution
//	ExecutionResults           execution -> persistence
//	RegenRounds                approval loop bookkeeping, capped per run
type PipelineState struct {
	// Ephemeral – consumed by persona derivation, then cleared.
	RawInput       string `json:"raw_input,omitempty"`
	RawProfileText string `json:"raw_profile_text,omitempty"`

	// Stable identifiers. TargetIdentifier is never persisted verbatim;
	// only TargetHash reaches storage.
	TargetIdentifier string            `json:"target_identifier,omitempty"`
	TargetHash       string            `json:"target_hash,omitempty"`
	Company          string            `json:"company,omitempty"`
	Role             string            `json:"role,omitempty"`
	Industry         string            `json:"industry,omitempty"`
	Links            map[string]string `json:"links,omitempty"`

	// Persona output.
	Tone            *ToneProfile `json:"tone,omitempty"`
	SimilarPersonas []string     `json:"similar_personas,omitempty"`

	// Drafts, one per channel, never reordered.
	Drafts []Draft `json:"drafts,omitempty"`

	// Approval / execution control fields.
	ApprovedChannels []string          `json:"approved_channels,omitempty"`
	ExecutionResults []ExecutionResult `json:"execution_results,omitempty"`
	RegenRounds      int               `json:"regen_rounds,omitempty"`

	RunID  string `json:"run_id,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Clone returns a deep copy so registry snapshots never share slices or maps
// with in-flight workers.
func (s *PipelineState) Clone() PipelineState {
	out := *s
	if s.Links != nil {
		out.Links = make(map[string]string, len(s.Links))
		for k, v := range s.Links {
			out.Links[k] = v
		}
	}
	if s.Tone != nil {
		tone := *s.Tone
		tone.Interests = append([]string(nil), s.Tone.Interests...)
		tone.ToneKeywords = append([]string(nil), s.Tone.ToneKeywords...)
		out.Tone = &tone
	}
	out.SimilarPersonas = append([]string(nil), s.SimilarPersonas...)
	out.ApprovedChannels = append([]string(nil), s.ApprovedChannels...)
	out.ExecutionResults = append([]ExecutionResult(nil), s.ExecutionResults...)
	if s.Drafts != nil {
		out.Drafts = make([]Draft, len(s.Drafts))
		for i, d := range s.Drafts {
			if d.Score != nil {
				score := *d.Score
				d.Score = &score
			}
			out.Drafts[i] = d
		}
	}
	return out
}

// DraftFor returns a pointer to the draft for the given channel, or nil.
func (s *PipelineState) DraftFor(channel string) *Draft {
	for i := range s.Drafts {
		if s.Drafts[i].Channel == channel {
			return &s.Drafts[i]
		}
	}
	return nil
}

// UpsertDraft replaces the draft for its channel in place, or appends if the
// channel has no draft yet. Channel uniqueness and draft order are preserved.
func (s *PipelineState) UpsertDraft(d Draft) {
	for i := range s.Drafts {
		if s.Drafts[i].Channel == d.Channel {
			s.Drafts[i] = d
			return
		}
	}
	s.Drafts = append(s.Drafts, d)
}

// Decision is the resume payload for a suspended campaign. Channels absent
// from every list are skipped: not sent, not regenerated. Skipped is accepted
// for API symmetry but has no behavioral effect.
type Decision struct {
	Approved []string `json:"approved"`
	Regen    []string `json:"regen"`
	Skipped  []string `json:"skipped"`
}
