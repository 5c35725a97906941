// internal/agents/persistence.go
package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/sanitizer"
)

// RunStore persists one sanitized run record.
type RunStore interface {
	SaveRun(ctx context.Context, rec sanitizer.SanitizedRecord) error
}

// PersistenceAgent pushes the state through the PII gate and writes the
// sanitized record. The raw target identifier never reaches the store.
type PersistenceAgent struct {
	Store RunStore
	Log   *zap.Logger
}

// Run implements workflow.StageFunc.
func (a *PersistenceAgent) Run(ctx context.Context, st *model.PipelineState) (*model.PipelineState, error) {
	rec := sanitizer.SanitizeForStorage(st)
	if err := a.Store.SaveRun(ctx, rec); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	if a.Log != nil {
		a.Log.Info("run persisted",
			zap.String("run_id", rec.RunID),
			zap.String("target_hash", rec.TargetHash),
			zap.Int("drafts", len(rec.Drafts)))
	}
	return st, nil
}
