// internal/workflow/workers.go
package workflow

import (
	"context"
	"fmt"

	"github.com/unclebandit/outreach-engine/internal/model"
)

// StageFunc is the contract for an external stage worker: it takes the
// current pipeline state and returns the updated state, or fails with a
// worker-specific error. Workers own their retry policy; the orchestrator
// applies none.
type StageFunc func(ctx context.Context, st *model.PipelineState) (*model.PipelineState, error)

// DraftFunc generates one draft for one channel.
type DraftFunc func(ctx context.Context, channel string, st *model.PipelineState) (model.Draft, error)

// WorkerSet bundles every stage worker the driver needs.
type WorkerSet struct {
	Ingest  StageFunc
	Persona StageFunc
	Draft   DraftFunc
	Score   StageFunc
	Execute StageFunc
	Persist StageFunc
}

func (w WorkerSet) validate() error {
	if w.Ingest == nil || w.Persona == nil || w.Draft == nil ||
		w.Score == nil || w.Execute == nil || w.Persist == nil {
		return fmt.Errorf("worker set is incomplete")
	}
	return nil
}
