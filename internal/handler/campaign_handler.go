// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/apperrors"
	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/registry"
	"github.com/unclebandit/outreach-engine/internal/workflow"
)

// CampaignHandler holds the dependencies for the campaign HTTP API.
type CampaignHandler struct {
	Registry *registry.Registry
	Driver   *workflow.Driver
	Log      *zap.Logger
}

// Routes mounts the API onto a chi router.
func (h *CampaignHandler) Routes(r chi.Router) {
	r.Get("/", h.Health)
	r.Post("/api/v1/campaigns", h.CreateCampaign)
	r.Get("/api/v1/campaigns/{id}", h.GetCampaign)
	r.Get("/api/v1/campaigns/{id}/stream", h.StreamCampaign)
	r.Post("/api/v1/campaigns/{id}/approve", h.ApproveDrafts)
}

// Health is the liveness probe.
func (h *CampaignHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Outreach Engine API",
	})
}

type createCampaignRequest struct {
	InputType string `json:"input_type"` // "url", "text" or "file"
	Content   string `json:"content"`
}

type draftResponse struct {
	Channel  string   `json:"channel"`
	Subject  string   `json:"subject,omitempty"`
	Body     string   `json:"body"`
	Score    *float64 `json:"score,omitempty"`
	Approved bool     `json:"approved"`
	Sent     bool     `json:"sent"`
}

type campaignResponse struct {
	CampaignID    string                      `json:"campaign_id"`
	Status        string                      `json:"status"`
	CurrentStage  string                      `json:"current_stage"`
	TargetCompany string                      `json:"target_company,omitempty"`
	TargetRole    string                      `json:"target_role,omitempty"`
	Stages        map[string]model.StageEntry `json:"stages"`
	Drafts        []draftResponse             `json:"drafts"`
	Error         string                      `json:"error,omitempty"`
}

// CreateCampaign starts a new outreach campaign. The workflow runs in the
// background; clients follow progress via the stream endpoint or by polling.
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	if req.InputType == "" {
		req.InputType = "text"
	}

	id := h.Registry.Create(model.CampaignInput{Type: req.InputType, Content: req.Content})

	// The request context dies with this handler; the workflow gets its own.
	go func() {
		if err := h.Driver.Start(context.Background(), id); err != nil {
			h.Log.Error("workflow failed", zap.String("campaign_id", id), zap.Error(err))
		}
	}()

	camp, err := h.Registry.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(camp))
}

// GetCampaign returns the campaign snapshot: status, stage table and drafts.
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	camp, err := h.Registry.Get(id)
	if err != nil {
		var notFound *apperrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(camp))
}

// StreamCampaign is the Server-Sent Events endpoint for live updates. The
// first payload is the full campaign snapshot; stage_update events follow.
// The stream ends when the campaign reaches a terminal status.
func (h *CampaignHandler) StreamCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Subscribe before snapshotting so no event falls into the gap.
	sub := h.Registry.Subscribe(id)
	defer h.Registry.Unsubscribe(id, sub)

	camp, err := h.Registry.Get(id)
	if err != nil {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeSSE(w, toCampaignResponse(camp)); err != nil {
		return
	}
	flusher.Flush()

	if terminalStatus(camp.Status) {
		return
	}

	// The last stage event can arrive before the campaign status turns
	// terminal, with no further event to wake this loop. The ticker
	// re-checks so the stream still ends.
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			current, err := h.Registry.Get(id)
			if err != nil || terminalStatus(current.Status) {
				return
			}
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()

			if ev.Status == model.StageCompleted || ev.Status == model.StageFailed {
				current, err := h.Registry.Get(id)
				if err == nil && terminalStatus(current.Status) {
					return
				}
			}
		}
	}
}

func terminalStatus(status string) bool {
	return status == model.CampaignCompleted || status == model.CampaignFailed
}

// ApproveDrafts feeds the human decision into a suspended campaign.
func (h *CampaignHandler) ApproveDrafts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dec model.Decision
	if err := json.NewDecoder(r.Body).Decode(&dec); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	camp, err := h.Registry.Get(id)
	if err != nil {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}
	if camp.Status != model.CampaignWaiting {
		http.Error(w, fmt.Sprintf("campaign is not awaiting approval (status: %s)", camp.Status), http.StatusConflict)
		return
	}

	go func() {
		if err := h.Driver.Resume(context.Background(), id, dec); err != nil {
			h.Log.Error("resume failed", zap.String("campaign_id", id), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"approved": dec.Approved,
		"regen":    dec.Regen,
	})
}

func toCampaignResponse(camp model.Campaign) campaignResponse {
	resp := campaignResponse{
		CampaignID:   camp.ID,
		Status:       camp.Status,
		CurrentStage: camp.CurrentStage,
		Stages:       camp.Stages,
		Drafts:       []draftResponse{},
		Error:        camp.Error,
	}
	if camp.State != nil {
		resp.TargetCompany = camp.State.Company
		resp.TargetRole = camp.State.Role
		for _, d := range camp.State.Drafts {
			resp.Drafts = append(resp.Drafts, draftResponse{
				Channel:  d.Channel,
				Subject:  d.Subject,
				Body:     d.Body,
				Score:    d.Score,
				Approved: d.Approved,
				Sent:     d.Sent,
			})
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
