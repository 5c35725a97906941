// internal/sanitizer/sanitizer.go

// Package sanitizer is the PII gate. Nothing reaches storage without passing
// through here.
//
// Kept: company, role, industry, public-profile links, tone metadata,
// interest tags, draft text, scores. Stripped: phone numbers, personal email
// addresses, and the raw target identifier, which is replaced by an opaque
// SHA-256 hash so repeat targets can be correlated without storing the
// identifier itself.
package sanitizer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/unclebandit/outreach-engine/internal/model"
)

var (
	phoneRe = regexp.MustCompile(`\+?\d[\d\s\-\(\)]{7,}\d`)
	emailRe = regexp.MustCompile(`[\w.\-+]+@[\w.\-]+\.\w{2,}`)
)

// allowedLinkKeys whitelists public-profile link kinds; anything else is
// dropped rather than scrubbed.
var allowedLinkKeys = map[string]bool{
	"linkedin":     true,
	"company_site": true,
	"twitter":      true,
	"github":       true,
	"portfolio":    true,
	"blog":         true,
	"website":      true,
}

// ComputeTargetHash returns the SHA-256 of the raw identifier the user gave
// us (e.g. a LinkedIn URL or an email address).
func ComputeTargetHash(identifier string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(identifier)))
	return hex.EncodeToString(sum[:])
}

// ScrubText removes phone numbers and email addresses from free text.
func ScrubText(text string) string {
	text = phoneRe.ReplaceAllString(text, "[REDACTED-PHONE]")
	text = emailRe.ReplaceAllString(text, "[REDACTED-EMAIL]")
	return text
}

// SanitizedDraft is the storable form of a draft.
type SanitizedDraft struct {
	Channel  string   `json:"channel"`
	Subject  string   `json:"subject,omitempty"`
	Body     string   `json:"body"`
	Score    *float64 `json:"score,omitempty"`
	Approved bool     `json:"approved"`
	Sent     bool     `json:"sent"`
}

// SanitizedRecord is the PII-scrubbed payload safe to persist. It carries no
// raw identifier; TargetHash is the only correlation key.
type SanitizedRecord struct {
	RunID      string             `json:"run_id"`
	TargetHash string             `json:"target_hash"`
	Company    string             `json:"company,omitempty"`
	Role       string             `json:"role,omitempty"`
	Industry   string             `json:"industry,omitempty"`
	Links      map[string]string  `json:"links,omitempty"`
	Tone       *model.ToneProfile `json:"tone,omitempty"`
	Drafts     []SanitizedDraft   `json:"drafts"`
	RunStatus  string             `json:"run_status"`
	RunError   string             `json:"run_error,omitempty"`
}

// SanitizeForStorage takes the pipeline state and returns a safe copy for
// the database. Fields not explicitly handled here never leave the process.
func SanitizeForStorage(st *model.PipelineState) SanitizedRecord {
	rec := SanitizedRecord{
		RunID:      st.RunID,
		TargetHash: st.TargetHash,
		Company:    ScrubText(st.Company),
		Role:       ScrubText(st.Role),
		Industry:   ScrubText(st.Industry),
		RunStatus:  st.Status,
		RunError:   st.Error,
	}

	if len(st.Links) > 0 {
		rec.Links = make(map[string]string, len(st.Links))
		for k, v := range st.Links {
			if allowedLinkKeys[strings.ToLower(k)] {
				rec.Links[k] = v
			}
		}
	}

	if st.Tone != nil {
		tone := *st.Tone
		tone.CommunicationStyle = ScrubText(tone.CommunicationStyle)
		tone.RecentActivity = ScrubText(tone.RecentActivity)
		rec.Tone = &tone
	}

	rec.Drafts = make([]SanitizedDraft, 0, len(st.Drafts))
	for _, d := range st.Drafts {
		sd := SanitizedDraft{
			Channel:  d.Channel,
			Body:     ScrubText(d.Body),
			Score:    d.Score,
			Approved: d.Approved,
			Sent:     d.Sent,
		}
		if d.Subject != "" {
			sd.Subject = ScrubText(d.Subject)
		}
		rec.Drafts = append(rec.Drafts, sd)
	}
	return rec
}
