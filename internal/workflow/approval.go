// internal/workflow/approval.go
package workflow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/apperrors"
	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/registry"
)

// MaxRegenRounds caps regeneration per campaign run, counted across the
// whole approval phase, not per channel. A regen request past the cap is
// dropped and the pipeline proceeds to execution.
const MaxRegenRounds = 3

// Controller drives the scoring -> human decision -> optional regeneration
// -> execution section of the pipeline. Suspension is modeled by returning:
// no goroutine blocks while a decision is pending, and resumption rebuilds
// the controller's position purely from the registry record.
type Controller struct {
	reg      *registry.Registry
	runner   *Runner
	workers  WorkerSet
	channels []string
	log      *zap.Logger
}

// NewController wires the approval state machine.
func NewController(reg *registry.Registry, runner *Runner, workers WorkerSet, channels []string, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{reg: reg, runner: runner, workers: workers, channels: channels, log: log}
}

// BeginApproval scores the current drafts and suspends the campaign at the
// approval stage. The campaign stays waiting until Resume is called with a
// decision payload.
func (c *Controller) BeginApproval(ctx context.Context, campaignID string, st *model.PipelineState) error {
	st, err := c.runner.Run(ctx, campaignID, model.StageScoring, c.workers.Score, st)
	if err != nil {
		c.fail(campaignID, err)
		return err
	}

	c.reg.UpdateStage(campaignID, model.StageApproval, model.StageWaiting, "Waiting for user approval...")
	st.Status = model.CampaignWaiting
	c.reg.UpdateState(campaignID, st)
	return nil
}

// Resume applies a human decision to a suspended campaign. Approved drafts
// are marked approved; if the decision asks for regeneration (and the round
// cap allows it), the listed channels are re-drafted and the campaign loops
// back to scoring and suspends again. Otherwise execution and persistence
// run and the campaign terminates.
//
// A channel present in both approved and regen is treated as regen: its body
// is about to change, so the prior approval is discarded with the old draft.
// A channel absent from both lists is neither sent nor regenerated.
func (c *Controller) Resume(ctx context.Context, campaignID string, dec model.Decision) error {
	camp, err := c.reg.Get(campaignID)
	if err != nil {
		return err
	}
	if camp.Status != model.CampaignWaiting || camp.State == nil {
		return apperrors.NewNotAwaitingApproval(campaignID, camp.Status)
	}

	st := camp.State // already a private deep copy from Get
	st.Status = model.CampaignRunning
	c.reg.SetStatus(campaignID, model.CampaignRunning, "")

	regenSet := make(map[string]bool, len(dec.Regen))
	for _, ch := range dec.Regen {
		regenSet[ch] = true
	}
	for _, ch := range dec.Approved {
		if regenSet[ch] {
			continue // regen wins
		}
		if d := st.DraftFor(ch); d != nil {
			d.Approved = true
		}
	}
	st.ApprovedChannels = approvedChannels(st)

	if len(dec.Regen) > 0 {
		st.RegenRounds++
		if st.RegenRounds > MaxRegenRounds {
			// Soft failure: logged, never raised. Execution proceeds with
			// whatever is already approved.
			c.log.Warn("regen round limit reached, dropping regen request",
				zap.String("campaign_id", campaignID),
				zap.Int("limit", MaxRegenRounds),
				zap.Strings("regen", dec.Regen))
		} else {
			return c.regenerate(ctx, campaignID, dec.Regen, st)
		}
	}

	c.reg.UpdateStage(campaignID, model.StageApproval, model.StageCompleted,
		"Approved channels: "+strings.Join(st.ApprovedChannels, ", "))
	c.reg.UpdateState(campaignID, st)
	return c.finish(ctx, campaignID, st)
}

// regenerate replaces the drafts for the requested channels and loops back
// to scoring. Channels without an existing draft are ignored.
func (c *Controller) regenerate(ctx context.Context, campaignID string, requested []string, st *model.PipelineState) error {
	channels := make([]string, 0, len(requested))
	for _, ch := range requested {
		if st.DraftFor(ch) != nil {
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		c.log.Warn("regen requested for unknown channels only, skipping",
			zap.String("campaign_id", campaignID), zap.Strings("requested", requested))
		c.reg.UpdateStage(campaignID, model.StageApproval, model.StageCompleted,
			"Approved channels: "+strings.Join(st.ApprovedChannels, ", "))
		c.reg.UpdateState(campaignID, st)
		return c.finish(ctx, campaignID, st)
	}

	c.log.Info("regenerating drafts",
		zap.String("campaign_id", campaignID),
		zap.Strings("channels", channels),
		zap.Int("round", st.RegenRounds))

	// RunDrafts replaces each listed draft wholesale: fresh body, score
	// cleared, approval reset.
	st, err := c.runner.RunDrafts(ctx, campaignID, channels, c.workers.Draft, st,
		"Regenerating drafts for: "+strings.Join(channels, ", "))
	if err != nil {
		c.fail(campaignID, err)
		return err
	}
	return c.BeginApproval(ctx, campaignID, st)
}

// finish runs execution over the approved drafts, persists the sanitized
// record and marks the campaign completed.
func (c *Controller) finish(ctx context.Context, campaignID string, st *model.PipelineState) error {
	st, err := c.runner.Run(ctx, campaignID, model.StageExecution, c.workers.Execute, st)
	if err != nil {
		c.fail(campaignID, err)
		return err
	}

	st, err = c.runner.Run(ctx, campaignID, model.StagePersistence, c.workers.Persist, st)
	if err != nil {
		c.fail(campaignID, err)
		return err
	}

	st.Status = model.CampaignCompleted
	c.reg.UpdateState(campaignID, st)
	c.reg.SetStatus(campaignID, model.CampaignCompleted, "")
	c.log.Info("campaign completed", zap.String("campaign_id", campaignID))
	return nil
}

func (c *Controller) fail(campaignID string, err error) {
	c.reg.SetStatus(campaignID, model.CampaignFailed, err.Error())
}

func approvedChannels(st *model.PipelineState) []string {
	out := make([]string, 0, len(st.Drafts))
	for _, d := range st.Drafts {
		if d.Approved {
			out = append(out, d.Channel)
		}
	}
	return out
}
