package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/sanitizer"
)

func TestScrubTextRedactsPhonesAndEmails(t *testing.T) {
	in := "Call me at +1 (555) 123-4567 or write to jane.doe+work@acme.io anytime."
	out := sanitizer.ScrubText(in)

	assert.NotContains(t, out, "555")
	assert.NotContains(t, out, "jane.doe")
	assert.Contains(t, out, "[REDACTED-PHONE]")
	assert.Contains(t, out, "[REDACTED-EMAIL]")
	assert.Contains(t, out, "anytime", "non-PII text survives")
}

func TestScrubTextLeavesCleanTextAlone(t *testing.T) {
	in := "Acme builds logistics software for mid-market shippers."
	assert.Equal(t, in, sanitizer.ScrubText(in))
}

func TestComputeTargetHashIsStable(t *testing.T) {
	a := sanitizer.ComputeTargetHash("https://linkedin.com/in/janedoe")
	b := sanitizer.ComputeTargetHash("  https://linkedin.com/in/janedoe \n")

	assert.Equal(t, a, b, "surrounding whitespace must not change the hash")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, sanitizer.ComputeTargetHash("https://linkedin.com/in/other"))
	assert.NotContains(t, a, "janedoe")
}

func TestSanitizeForStorageStripsIdentifierAndScrubsDrafts(t *testing.T) {
	score := 7.5
	st := &model.PipelineState{
		RunID:            "run-1",
		TargetIdentifier: "jane@acme.io",
		TargetHash:       "deadbeef",
		Company:          "Acme",
		Role:             "CTO",
		Industry:         "Fintech",
		Status:           model.CampaignCompleted,
		Links: map[string]string{
			"linkedin": "https://linkedin.com/in/janedoe",
			"calendar": "https://cal.example/janedoe",
		},
		Tone: &model.ToneProfile{
			FormalityLevel:     "formal",
			CommunicationStyle: "reach her at jane@acme.io",
		},
		Drafts: []model.Draft{
			{Channel: "email", Subject: "Hi", Body: "ping me on +1 555 000 1111", Score: &score, Approved: true, Sent: true},
		},
	}

	rec := sanitizer.SanitizeForStorage(st)

	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, "deadbeef", rec.TargetHash)
	assert.Equal(t, model.CampaignCompleted, rec.RunStatus)

	// Only whitelisted public-profile link kinds survive.
	assert.Contains(t, rec.Links, "linkedin")
	assert.NotContains(t, rec.Links, "calendar")

	require.NotNil(t, rec.Tone)
	assert.NotContains(t, rec.Tone.CommunicationStyle, "jane@acme.io")

	require.Len(t, rec.Drafts, 1)
	d := rec.Drafts[0]
	assert.NotContains(t, d.Body, "555")
	assert.Equal(t, &score, d.Score)
	assert.True(t, d.Approved)
	assert.True(t, d.Sent)
}

func TestSanitizeForStorageHandlesBareState(t *testing.T) {
	rec := sanitizer.SanitizeForStorage(&model.PipelineState{RunID: "run-2"})

	assert.Equal(t, "run-2", rec.RunID)
	assert.Nil(t, rec.Links)
	assert.Nil(t, rec.Tone)
	assert.Empty(t, rec.Drafts)
}
