package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/events"
	"github.com/unclebandit/outreach-engine/internal/handler"
	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/registry"
	"github.com/unclebandit/outreach-engine/internal/workflow"
)

type testServer struct {
	srv *httptest.Server
	reg *registry.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg := registry.New(events.NewBus(0, nil), nil)

	passthrough := func(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
		return st, nil
	}
	workers := workflow.WorkerSet{
		Ingest: func(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
			st.Company = "Acme"
			st.Role = "CTO"
			st.TargetHash = "hash"
			return st, nil
		},
		Persona: passthrough,
		Draft: func(_ context.Context, channel string, _ *model.PipelineState) (model.Draft, error) {
			return model.Draft{Channel: channel, Body: "draft for " + channel}, nil
		},
		Score: func(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
			for i := range st.Drafts {
				score := 6.0
				st.Drafts[i].Score = &score
			}
			return st, nil
		},
		Execute: func(_ context.Context, st *model.PipelineState) (*model.PipelineState, error) {
			for i := range st.Drafts {
				if st.Drafts[i].Approved {
					st.Drafts[i].Sent = true
				}
			}
			return st, nil
		},
		Persist: passthrough,
	}

	driver, err := workflow.NewDriver(reg, workers, []string{"email", "sms"}, nil)
	require.NoError(t, err)

	h := &handler.CampaignHandler{Registry: reg, Driver: driver, Log: zap.NewNop()}
	r := chi.NewRouter()
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, reg: reg}
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (ts *testServer) getCampaign(t *testing.T, id string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + "/api/v1/campaigns/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func (ts *testServer) waitForStatus(t *testing.T, id, want string) map[string]any {
	t.Helper()
	var last map[string]any
	require.Eventually(t, func() bool {
		code, body := ts.getCampaign(t, id)
		if code != http.StatusOK {
			return false
		}
		last = body
		return body["status"] == want
	}, 5*time.Second, 10*time.Millisecond, "campaign never reached status %s", want)
	return last
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateApproveComplete(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/campaigns", map[string]string{
		"input_type": "text",
		"content":    "CTO at Acme",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id, _ := created["campaign_id"].(string)
	require.NotEmpty(t, id)

	body := ts.waitForStatus(t, id, model.CampaignWaiting)
	drafts, _ := body["drafts"].([]any)
	assert.Len(t, drafts, 2)
	assert.Equal(t, "Acme", body["target_company"])

	approveResp := ts.postJSON(t, "/api/v1/campaigns/"+id+"/approve", map[string]any{
		"approved": []string{"email"},
	})
	defer approveResp.Body.Close()
	require.Equal(t, http.StatusOK, approveResp.StatusCode)

	body = ts.waitForStatus(t, id, model.CampaignCompleted)
	byChannel := map[string]map[string]any{}
	for _, raw := range body["drafts"].([]any) {
		d := raw.(map[string]any)
		byChannel[d["channel"].(string)] = d
	}
	assert.Equal(t, true, byChannel["email"]["sent"])
	assert.Equal(t, false, byChannel["sms"]["sent"])
}

func TestCreateRequiresContent(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/campaigns", map[string]string{"input_type": "text"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownCampaignIs404(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.getCampaign(t, "no-such-id")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestApproveUnknownCampaignIs404(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.postJSON(t, "/api/v1/campaigns/no-such-id/approve", map[string]any{
		"approved": []string{"email"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApproveRejectsNonWaitingCampaign(t *testing.T) {
	ts := newTestServer(t)

	// Created directly, workflow never started: status is "created".
	id := ts.reg.Create(model.CampaignInput{Type: "text", Content: "x"})

	resp := ts.postJSON(t, "/api/v1/campaigns/"+id+"/approve", map[string]any{
		"approved": []string{"email"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStreamSendsSnapshotAndEndsOnTerminalCampaign(t *testing.T) {
	ts := newTestServer(t)

	id := ts.reg.Create(model.CampaignInput{Type: "text", Content: "x"})
	ts.reg.SetStatus(id, model.CampaignCompleted, "")

	resp, err := http.Get(ts.srv.URL + "/api/v1/campaigns/" + id + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var snapshot map[string]any
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot))
			break
		}
	}
	require.NotNil(t, snapshot, "stream must open with a snapshot")
	assert.Equal(t, id, snapshot["campaign_id"])
	assert.Equal(t, model.CampaignCompleted, snapshot["status"])

	// Terminal campaign: the server closes the stream after the snapshot.
	done := make(chan struct{})
	go func() {
		for scanner.Scan() {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close for a terminal campaign")
	}
}

func TestStreamEndsWhenStatusTurnsTerminalWithoutEvent(t *testing.T) {
	ts := newTestServer(t)

	id := ts.reg.Create(model.CampaignInput{Type: "text", Content: "x"})
	ts.reg.SetStatus(id, model.CampaignRunning, "")

	resp, err := http.Get(ts.srv.URL + "/api/v1/campaigns/" + id + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The final stage event lands while the campaign still reads running,
	// then the status flips without any further event being published.
	ts.reg.UpdateStage(id, model.StagePersistence, model.StageCompleted, "Persistence completed")
	ts.reg.SetStatus(id, model.CampaignCompleted, "")

	done := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream hung after the campaign turned terminal")
	}
}
