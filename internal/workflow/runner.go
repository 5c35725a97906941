// internal/workflow/runner.go
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/registry"
)

// Runner invokes one stage worker, reports progress to the registry and
// propagates failures to the caller. Whether a failure terminates the
// campaign is the caller's call.
type Runner struct {
	reg *registry.Registry
	log *zap.Logger
}

// NewRunner builds a stage runner reporting to the given registry.
func NewRunner(reg *registry.Registry, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{reg: reg, log: log}
}

// Run executes one worker for one stage. The stage is marked running before
// the worker starts and completed after it returns; on failure the stage is
// marked failed with the worker's error text and the error is returned.
func (r *Runner) Run(ctx context.Context, campaignID, stage string, worker StageFunc, st *model.PipelineState) (*model.PipelineState, error) {
	r.reg.UpdateStage(campaignID, stage, model.StageRunning, "Processing "+stage+"...")

	out, err := worker(ctx, st)
	if err != nil {
		r.reg.UpdateStage(campaignID, stage, model.StageFailed, err.Error())
		r.log.Error("stage worker failed",
			zap.String("campaign_id", campaignID),
			zap.String("stage", stage),
			zap.Error(err))
		return st, fmt.Errorf("%s worker: %w", stage, err)
	}

	r.reg.UpdateState(campaignID, out)
	r.reg.UpdateStage(campaignID, stage, model.StageCompleted, capitalize(stage)+" completed")
	return out, nil
}

// RunDrafts fans out the draft worker over the channel set. The channel
// workers run concurrently but observers see one logical "drafting" stage:
// running once before the first worker starts, completed once after every
// channel in the set has produced a draft. Completion is detected by
// channel-set membership, so the set is configurable without code change.
func (r *Runner) RunDrafts(ctx context.Context, campaignID string, channels []string, worker DraftFunc, st *model.PipelineState, runningMsg string) (*model.PipelineState, error) {
	if len(channels) == 0 {
		return st, fmt.Errorf("drafting: empty channel set")
	}
	r.reg.UpdateStage(campaignID, model.StageDrafting, model.StageRunning, runningMsg)

	var mu sync.Mutex
	drafts := make(map[string]model.Draft, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	for _, channel := range channels {
		channel := channel
		g.Go(func() error {
			d, err := worker(gctx, channel, st)
			if err != nil {
				return fmt.Errorf("draft_%s worker: %w", channel, err)
			}
			mu.Lock()
			drafts[channel] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.reg.UpdateStage(campaignID, model.StageDrafting, model.StageFailed, err.Error())
		r.log.Error("drafting failed", zap.String("campaign_id", campaignID), zap.Error(err))
		return st, err
	}

	// Membership check: the stage completes only when every channel in the
	// configured set has a draft.
	for _, channel := range channels {
		d, ok := drafts[channel]
		if !ok {
			err := fmt.Errorf("drafting: no draft produced for channel %s", channel)
			r.reg.UpdateStage(campaignID, model.StageDrafting, model.StageFailed, err.Error())
			return st, err
		}
		st.UpsertDraft(d)
	}

	r.reg.UpdateState(campaignID, st)
	r.reg.UpdateStage(campaignID, model.StageDrafting, model.StageCompleted, "Drafting completed")
	return st, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
