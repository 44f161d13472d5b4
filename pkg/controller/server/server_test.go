package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
	"github.com/Salmaelayeb/sentinel-hub/pkg/controller/server"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/infra"
	"github.com/Salmaelayeb/sentinel-hub/pkg/usecase"
)

// stubAdapter completes instantly with canned output.
type stubAdapter struct {
	raw  []byte
	hang bool
	mu   sync.Mutex
}

func (x *stubAdapter) Start(ctx context.Context, target, mode string) (*interfaces.JobHandle, error) {
	return &interfaces.JobHandle{Target: target, Mode: mode, Ref: "stub"}, nil
}

func (x *stubAdapter) Poll(ctx context.Context, handle *interfaces.JobHandle) (*interfaces.PollResult, error) {
	if x.hang {
		return &interfaces.PollResult{State: interfaces.PollPending}, nil
	}
	return &interfaces.PollResult{State: interfaces.PollDone, Progress: 100}, nil
}

func (x *stubAdapter) Collect(ctx context.Context, handle *interfaces.JobHandle) ([]byte, error) {
	return x.raw, nil
}

func (x *stubAdapter) Cancel(ctx context.Context, handle *interfaces.JobHandle) error {
	return nil
}

func newTestServer(t *testing.T, ad interfaces.Adapter) (*server.Server, interfaces.Database) {
	t.Helper()

	registry := adapter.NewRegistry()
	registry.Register(types.ToolZAP, ad)
	registry.SetTimeout(types.ToolZAP, time.Second)

	clients := infra.New(infra.WithAdapters(registry))
	uc := usecase.New(clients, usecase.WithPollInterval(5*time.Millisecond))

	return server.New(uc, clients.Database()), clients.Database()
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdapter{raw: []byte(`{"alerts":[]}`)})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.V(t, rec.Body.String()).Equal("ok")
}

func TestScanDispatchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdapter{hang: true})

	dispatch := func() *httptest.ResponseRecorder {
		body := []byte(`{"tool":"zap","target":"https://app.example.com","mode":"active"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		return rec
	}

	t.Run("dispatch is accepted with the queued job", func(t *testing.T) {
		rec := dispatch()
		gt.V(t, rec.Code).Equal(http.StatusAccepted)

		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.V(t, resp.Status).Equal("queued")
		gt.V(t, resp.ID == "").Equal(false)
	})

	t.Run("duplicate dispatch conflicts with 409", func(t *testing.T) {
		rec := dispatch()
		gt.V(t, rec.Code).Equal(http.StatusConflict)
	})

	t.Run("invalid body is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown tool is a 400", func(t *testing.T) {
		body := []byte(`{"tool":"nessus","target":"x"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestScheduleEndpoints(t *testing.T) {
	srv, db := newTestServer(t, &stubAdapter{raw: []byte(`{"alerts":[]}`)})

	var created struct {
		ID string `json:"id"`
	}

	t.Run("create schedule", func(t *testing.T) {
		body := []byte(`{"tool":"zap","target":"https://app.example.com","frequency":"daily"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)

		gt.V(t, rec.Code).Equal(http.StatusCreated)
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		gt.V(t, created.ID == "").Equal(false)
	})

	t.Run("invalid frequency is a 400", func(t *testing.T) {
		body := []byte(`{"tool":"zap","target":"https://app.example.com","frequency":"fortnightly"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("list shows the active schedule", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)

		gt.V(t, rec.Code).Equal(http.StatusOK)
		var resp []map[string]any
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.V(t, len(resp)).Equal(1)
	})

	t.Run("manual trigger is accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/"+created.ID+"/run", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusAccepted)

		t.Run("run times stay untouched", func(t *testing.T) {
			schedule, err := db.GetSchedule(context.Background(), types.ScheduleID(created.ID))
			gt.NoError(t, err)
			gt.V(t, schedule.LastRun == nil).Equal(true)
		})
	})

	t.Run("trigger on missing schedule is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/missing/run", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("toggle flips the active flag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/"+created.ID+"/toggle", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)

		gt.V(t, rec.Code).Equal(http.StatusOK)
		var resp struct {
			IsActive bool `json:"is_active"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.False(t, resp.IsActive)
	})
}

func TestAlertEndpoints(t *testing.T) {
	srv, db := newTestServer(t, &stubAdapter{})
	ctx := context.Background()

	alert := &model.Alert{
		Message:    "port scan detected",
		SourceTool: types.ToolTShark,
		Timestamp:  time.Now(),
	}
	gt.NoError(t, db.CreateAlert(ctx, alert))

	t.Run("list alerts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)

		gt.V(t, rec.Code).Equal(http.StatusOK)
		var resp []map[string]any
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.V(t, len(resp)).Equal(1)
	})

	t.Run("acknowledge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+string(alert.ID)+"/ack", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusOK)

		alerts, err := db.ListAlerts(ctx)
		gt.NoError(t, err)
		gt.True(t, alerts[0].Acknowledged)
	})

	t.Run("acknowledge missing alert is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/missing/ack", nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		gt.V(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestReadEndpoints(t *testing.T) {
	srv, db := newTestServer(t, &stubAdapter{})
	ctx := context.Background()

	now := time.Now()
	_, err := db.CreateFindingIfNew(ctx, &model.Finding{
		DedupKey:     "ZAP-40018-https://app.example.com",
		Title:        "SQL Injection",
		Severity:     types.SeverityCritical,
		Asset:        "https://app.example.com",
		SourceTool:   types.ToolZAP,
		Status:       types.FindingStatusOpen,
		DiscoveredAt: now,
		UpdatedAt:    now,
	})
	gt.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Mux().ServeHTTP(rec, req)
		return rec
	}

	t.Run("findings", func(t *testing.T) {
		rec := get("/api/v1/findings")
		gt.V(t, rec.Code).Equal(http.StatusOK)

		var resp []map[string]any
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.V(t, len(resp)).Equal(1)
		gt.V(t, resp[0]["severity"]).Equal("critical")
	})

	t.Run("metrics", func(t *testing.T) {
		rec := get("/api/v1/metrics")
		gt.V(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			OpenFindingsBySeverity map[string]int `json:"open_findings_by_severity"`
			UnacknowledgedAlerts   int            `json:"unacknowledged_alerts"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		gt.V(t, resp.OpenFindingsBySeverity["critical"]).Equal(1)
	})

	t.Run("tools and jobs and hosts respond", func(t *testing.T) {
		gt.V(t, get("/api/v1/tools").Code).Equal(http.StatusOK)
		gt.V(t, get("/api/v1/jobs").Code).Equal(http.StatusOK)
		gt.V(t, get("/api/v1/hosts").Code).Equal(http.StatusOK)
	})
}
