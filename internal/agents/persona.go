// internal/agents/persona.go
package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/model"
)

// PersonaAgent derives a tone profile from the ingested profile text, then
// clears the ephemeral raw fields: nothing downstream of this stage may see
// the original input.
type PersonaAgent struct {
	Log *zap.Logger
}

var interestKeywords = []string{
	"ai", "machine learning", "startups", "cloud", "open source",
	"devops", "fintech", "design", "growth", "sales", "security",
	"data", "mobile", "blockchain",
}

// Run implements workflow.StageFunc.
func (a *PersonaAgent) Run(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
	if st.RawProfileText == "" {
		return nil, fmt.Errorf("no profile text to analyze")
	}
	text := st.RawProfileText
	lower := strings.ToLower(text)

	tone := &model.ToneProfile{
		FormalityLevel: formality(text),
	}

	for _, kw := range interestKeywords {
		if strings.Contains(lower, kw) {
			tone.Interests = append(tone.Interests, kw)
		}
	}

	var hints []string
	if strings.ContainsAny(text, "!") {
		hints = append(hints, "energetic punctuation")
	}
	if avgSentenceLen(text) < 60 {
		hints = append(hints, "short sentences")
	}
	tone.LanguageHints = strings.Join(hints, ", ")

	switch tone.FormalityLevel {
	case "formal":
		tone.CommunicationStyle = "precise and businesslike"
		tone.ToneKeywords = []string{"professional", "concise", "respectful"}
	case "casual":
		tone.CommunicationStyle = "friendly and direct"
		tone.ToneKeywords = []string{"warm", "conversational", "upbeat"}
	default:
		tone.CommunicationStyle = "approachable but focused"
		tone.ToneKeywords = []string{"clear", "personable", "credible"}
	}

	st.Tone = tone
	// Similar-persona retrieval is a vector-store concern and stays empty
	// in the built-in worker.
	st.SimilarPersonas = nil

	// Ephemeral fields end here.
	st.RawInput = ""
	st.RawProfileText = ""

	if a.Log != nil {
		a.Log.Debug("persona derived",
			zap.String("formality", tone.FormalityLevel),
			zap.Strings("interests", tone.Interests))
	}
	return st, nil
}

func formality(text string) string {
	lower := strings.ToLower(text)
	formalMarkers := []string{"enterprise", "phd", "dr.", "board", "executive", "regulatory"}
	casualMarkers := []string{"hey", "!", "awesome", "love", "🚀"}
	for _, m := range formalMarkers {
		if strings.Contains(lower, m) {
			return "formal"
		}
	}
	for _, m := range casualMarkers {
		if strings.Contains(lower, m) {
			return "casual"
		}
	}
	return "semi-formal"
}

func avgSentenceLen(text string) int {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	if len(sentences) == 0 {
		return len(text)
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.TrimSpace(s))
	}
	return total / len(sentences)
}
