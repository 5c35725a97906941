// internal/registry/registry.go

// Package registry holds the in-memory record for every active campaign.
// It is the single durability boundary across the approval suspend/resume
// gap: a suspended campaign is reconstructed purely from its record here.
// Records live for the process lifetime; there is no eviction.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/apperrors"
	"github.com/unclebandit/outreach-engine/internal/events"
	"github.com/unclebandit/outreach-engine/internal/model"
)

// record wraps one campaign with its own lock. All mutations of one campaign
// are serialized on this lock, which also serializes its event publishes, so
// subscribers observe updates in mutation order.
type record struct {
	mu       sync.Mutex
	campaign model.Campaign
}

// Registry manages campaign records and publishes a stage_update event on
// every stage mutation.
type Registry struct {
	mu        sync.RWMutex
	campaigns map[string]*record
	bus       *events.Bus
	log       *zap.Logger
}

// New creates an empty registry publishing through the given bus.
func New(bus *events.Bus, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		campaigns: make(map[string]*record),
		bus:       bus,
		log:       log,
	}
}

// Create initializes a campaign with every stage pending and returns its id.
func (r *Registry) Create(input model.CampaignInput) string {
	id := uuid.NewString()
	stages := make(map[string]model.StageEntry, len(model.Stages))
	for _, s := range model.Stages {
		stages[s] = model.StageEntry{Status: model.StagePending}
	}

	rec := &record{campaign: model.Campaign{
		ID:           id,
		Status:       model.CampaignCreated,
		CurrentStage: model.StagePending,
		Input:        input,
		Stages:       stages,
		CreatedAt:    time.Now().UTC(),
	}}

	r.mu.Lock()
	r.campaigns[id] = rec
	r.mu.Unlock()

	r.log.Info("created campaign", zap.String("campaign_id", id), zap.String("input_type", input.Type))
	return id
}

// Get returns a deep-copied snapshot of the campaign.
func (r *Registry) Get(id string) (model.Campaign, error) {
	rec := r.lookup(id)
	if rec == nil {
		return model.Campaign{}, apperrors.NewCampaignNotFound(id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.campaign.Clone(), nil
}

// UpdateStage transitions one stage entry, bumps the current stage and
// publishes a stage_update event. Unknown campaign ids are a silent no-op:
// progress reporting is fire-and-forget and must never take a worker down.
func (r *Registry) UpdateStage(id, stage, status, message string) {
	rec := r.lookup(id)
	if rec == nil {
		r.log.Warn("stage update for unknown campaign dropped",
			zap.String("campaign_id", id), zap.String("stage", stage))
		return
	}

	now := time.Now().UTC()
	rec.mu.Lock()
	rec.campaign.Stages[stage] = model.StageEntry{
		Status:    status,
		Message:   message,
		Timestamp: now,
	}
	rec.campaign.CurrentStage = stage
	// Publish while holding the record lock so event order matches
	// mutation order for every subscriber.
	r.bus.Publish(id, model.Event{
		Type:      model.EventStageUpdate,
		Stage:     stage,
		Status:    status,
		Message:   message,
		Timestamp: now,
	})
	rec.mu.Unlock()
}

// UpdateState replaces the campaign's state snapshot wholesale. When the
// snapshot carries its own status, the campaign status follows it.
func (r *Registry) UpdateState(id string, st *model.PipelineState) {
	rec := r.lookup(id)
	if rec == nil {
		r.log.Warn("state update for unknown campaign dropped", zap.String("campaign_id", id))
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if st == nil {
		rec.campaign.State = nil
		return
	}
	clone := st.Clone()
	rec.campaign.State = &clone
	if st.Status != "" {
		rec.campaign.Status = st.Status
	}
}

// SetStatus sets the campaign-level status, recording an error message on
// the failure path.
func (r *Registry) SetStatus(id, status, errText string) {
	rec := r.lookup(id)
	if rec == nil {
		r.log.Warn("status update for unknown campaign dropped", zap.String("campaign_id", id))
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.campaign.Status = status
	if errText != "" {
		rec.campaign.Error = errText
	}
	if rec.campaign.State != nil {
		rec.campaign.State.Status = status
		if errText != "" {
			rec.campaign.State.Error = errText
		}
	}
}

// Subscribe registers an observer for the campaign's future events. Callers
// should read a Get snapshot first; events published before subscription are
// not replayed.
func (r *Registry) Subscribe(id string) *events.Subscription {
	return r.bus.Subscribe(id)
}

// Unsubscribe releases an observer queue.
func (r *Registry) Unsubscribe(id string, sub *events.Subscription) {
	r.bus.Unsubscribe(id, sub)
}

func (r *Registry) lookup(id string) *record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.campaigns[id]
}
