// internal/agents/scoring.go
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/unclebandit/outreach-engine/internal/model"
)

// Length bands per channel: drafts inside the band score full marks for fit.
var lengthBands = map[string][2]int{
	"email":     {200, 800},
	"sms":       {40, 160},
	"linkedin":  {100, 500},
	"instagram": {60, 300},
}

// ScoringAgent assigns each draft a 0-10 score from length fit,
// personalization and tone alignment. Deterministic: the same drafts always
// score the same.
type ScoringAgent struct{}

// Run implements workflow.StageFunc. Every draft gets a fresh score,
// including regenerated ones whose previous score was cleared.
func (a *ScoringAgent) Run(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
	if len(st.Drafts) == 0 {
		return nil, fmt.Errorf("no drafts to score")
	}
	for i := range st.Drafts {
		score := scoreDraft(&st.Drafts[i], st)
		st.Drafts[i].Score = &score
	}
	return st, nil
}

func scoreDraft(d *model.Draft, st *model.PipelineState) float64 {
	score := 4.0

	if band, ok := lengthBands[d.Channel]; ok {
		n := len(d.Body)
		switch {
		case n >= band[0] && n <= band[1]:
			score += 2.5
		case n < band[0]:
			score += 1.0
		default:
			score += 0.5
		}
	}

	body := strings.ToLower(d.Body)
	if st.Company != "" && strings.Contains(body, strings.ToLower(st.Company)) {
		score += 1.5
	}
	if st.Role != "" && strings.Contains(body, strings.ToLower(st.Role)) {
		score += 1.0
	}
	if d.Channel == "email" && d.Subject != "" {
		score += 0.5
	}
	if st.Tone != nil {
		for _, kw := range st.Tone.Interests {
			if strings.Contains(body, kw) {
				score += 0.25
			}
		}
	}

	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return score
}
