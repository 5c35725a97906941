// internal/workflow/driver.go

// Package workflow drives a campaign through its stages: the linear stretch
// (ingestion, persona, drafting) runs here, then control hands off to the
// approval controller, which suspends until an external decision arrives.
package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/apperrors"
	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/registry"
)

// Driver sequences stage-runner invocations for one campaign at a time per
// campaign id. Concurrent Start/Resume against the same campaign is not a
// supported pattern; the driver enforces that with a per-campaign lease
// instead of relying on caller discipline.
type Driver struct {
	reg      *registry.Registry
	runner   *Runner
	ctrl     *Controller
	workers  WorkerSet
	channels []string
	log      *zap.Logger

	leaseMu sync.Mutex
	leases  map[string]struct{}
}

// NewDriver wires a driver, its stage runner and the approval controller.
// channels defaults to model.DefaultChannels when empty.
func NewDriver(reg *registry.Registry, workers WorkerSet, channels []string, log *zap.Logger) (*Driver, error) {
	if err := workers.validate(); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		channels = model.DefaultChannels
	}
	if log == nil {
		log = zap.NewNop()
	}
	runner := NewRunner(reg, log)
	return &Driver{
		reg:      reg,
		runner:   runner,
		ctrl:     NewController(reg, runner, workers, channels, log),
		workers:  workers,
		channels: channels,
		log:      log,
		leases:   make(map[string]struct{}),
	}, nil
}

// Start runs the linear stages for a freshly created campaign and hands off
// to the approval controller. It returns once the campaign is suspended at
// approval, or earlier on failure. A worker failure in any linear stage
// marks the campaign failed and halts; no further stage runs.
func (d *Driver) Start(ctx context.Context, campaignID string) error {
	camp, err := d.reg.Get(campaignID)
	if err != nil {
		return err
	}
	if !d.acquire(campaignID) {
		return apperrors.NewNotAwaitingApproval(campaignID, camp.Status)
	}
	defer d.release(campaignID)

	d.reg.SetStatus(campaignID, model.CampaignRunning, "")

	st := &model.PipelineState{
		RawInput: camp.Input.Content,
		RunID:    uuid.NewString(),
		Status:   model.CampaignRunning,
	}

	st, err = d.runner.Run(ctx, campaignID, model.StageIngestion, d.workers.Ingest, st)
	if err != nil {
		d.fail(campaignID, err)
		return err
	}

	st, err = d.runner.Run(ctx, campaignID, model.StagePersona, d.workers.Persona, st)
	if err != nil {
		d.fail(campaignID, err)
		return err
	}

	st, err = d.runner.RunDrafts(ctx, campaignID, d.channels, d.workers.Draft, st,
		"Generating personalized drafts for all channels...")
	if err != nil {
		d.fail(campaignID, err)
		return err
	}

	return d.ctrl.BeginApproval(ctx, campaignID, st)
}

// Resume feeds a human decision to a campaign suspended at approval. The
// call may suspend the campaign again (regeneration round) or run it to
// termination.
func (d *Driver) Resume(ctx context.Context, campaignID string, dec model.Decision) error {
	camp, err := d.reg.Get(campaignID)
	if err != nil {
		return err
	}
	if !d.acquire(campaignID) {
		return apperrors.NewNotAwaitingApproval(campaignID, camp.Status)
	}
	defer d.release(campaignID)
	return d.ctrl.Resume(ctx, campaignID, dec)
}

func (d *Driver) fail(campaignID string, err error) {
	d.reg.SetStatus(campaignID, model.CampaignFailed, err.Error())
	d.log.Error("campaign failed", zap.String("campaign_id", campaignID), zap.Error(err))
}

func (d *Driver) acquire(campaignID string) bool {
	d.leaseMu.Lock()
	defer d.leaseMu.Unlock()
	if _, busy := d.leases[campaignID]; busy {
		return false
	}
	d.leases[campaignID] = struct{}{}
	return true
}

func (d *Driver) release(campaignID string) {
	d.leaseMu.Lock()
	defer d.leaseMu.Unlock()
	delete(d.leases, campaignID)
}
