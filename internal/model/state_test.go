package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-engine/internal/model"
)

func TestPipelineStateCloneIsDeep(t *testing.T) {
	score := 7.0
	st := &model.PipelineState{
		Links: map[string]string{"linkedin": "https://linkedin.com/in/x"},
		Tone:  &model.ToneProfile{FormalityLevel: "formal", Interests: []string{"ai"}},
		Drafts: []model.Draft{
			{Channel: "email", Body: "v1", Score: &score},
		},
	}

	clone := st.Clone()
	clone.Links["linkedin"] = "mutated"
	clone.Tone.Interests[0] = "mutated"
	*clone.Drafts[0].Score = 1.0
	clone.Drafts[0].Body = "mutated"

	assert.Equal(t, "https://linkedin.com/in/x", st.Links["linkedin"])
	assert.Equal(t, "ai", st.Tone.Interests[0])
	assert.Equal(t, 7.0, *st.Drafts[0].Score)
	assert.Equal(t, "v1", st.Drafts[0].Body)
}

func TestUpsertDraftReplacesInPlace(t *testing.T) {
	st := &model.PipelineState{Drafts: []model.Draft{
		{Channel: "email", Body: "e1", Approved: true},
		{Channel: "sms", Body: "s1"},
	}}

	st.UpsertDraft(model.Draft{Channel: "email", Body: "e2"})

	require.Len(t, st.Drafts, 2)
	assert.Equal(t, "email", st.Drafts[0].Channel, "draft order is stable")
	assert.Equal(t, "e2", st.Drafts[0].Body)
	assert.False(t, st.Drafts[0].Approved, "a replaced draft carries no prior approval")

	st.UpsertDraft(model.Draft{Channel: "linkedin", Body: "l1"})
	require.Len(t, st.Drafts, 3)
	assert.Equal(t, "linkedin", st.Drafts[2].Channel)
}

func TestDraftForReturnsAddressableEntry(t *testing.T) {
	st := &model.PipelineState{Drafts: []model.Draft{{Channel: "email"}}}

	st.DraftFor("email").Approved = true

	assert.True(t, st.Drafts[0].Approved)
	assert.Nil(t, st.DraftFor("fax"))
}
