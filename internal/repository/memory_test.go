package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-engine/internal/repository"
	"github.com/unclebandit/outreach-engine/internal/sanitizer"
)

func TestMemoryStoreSaveAndList(t *testing.T) {
	store := repository.NewMemoryStore()

	rec := sanitizer.SanitizedRecord{
		RunID:      "run-1",
		TargetHash: "hash-1",
		Drafts:     []sanitizer.SanitizedDraft{{Channel: "email", Body: "hi"}},
	}
	require.NoError(t, store.SaveRun(context.Background(), rec))

	runs := store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
}

func TestMemoryStoreMarkDraftSent(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.SaveRun(context.Background(), sanitizer.SanitizedRecord{
		RunID:  "run-1",
		Drafts: []sanitizer.SanitizedDraft{{Channel: "email"}, {Channel: "sms"}},
	}))

	require.NoError(t, store.MarkDraftSent(context.Background(), "run-1", "sms"))

	runs := store.Runs()
	assert.False(t, runs[0].Drafts[0].Sent)
	assert.True(t, runs[0].Drafts[1].Sent)

	assert.Error(t, store.MarkDraftSent(context.Background(), "run-1", "fax"))
	assert.Error(t, store.MarkDraftSent(context.Background(), "run-2", "email"))
}
