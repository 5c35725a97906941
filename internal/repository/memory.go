// internal/repository/memory.go
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/unclebandit/outreach-engine/internal/sanitizer"
)

// MemoryStore keeps sanitized run records in memory. Used by the CLI when no
// database is reachable, and by tests.
type MemoryStore struct {
	mu   sync.Mutex
	runs []sanitizer.SanitizedRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveRun implements the store contract.
func (s *MemoryStore) SaveRun(_ context.Context, rec sanitizer.SanitizedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, rec)
	return nil
}

// MarkDraftSent flips the sent flag on a stored draft.
func (s *MemoryStore) MarkDraftSent(_ context.Context, runID, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].RunID != runID {
			continue
		}
		for j := range s.runs[i].Drafts {
			if s.runs[i].Drafts[j].Channel == channel {
				s.runs[i].Drafts[j].Sent = true
				return nil
			}
		}
	}
	return fmt.Errorf("no draft record for run %s channel %s", runID, channel)
}

// Runs returns a copy of everything saved so far.
func (s *MemoryStore) Runs() []sanitizer.SanitizedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sanitizer.SanitizedRecord(nil), s.runs...)
}
