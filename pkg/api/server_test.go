package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
	"github.com/codeready-toolchain/eolscout/pkg/orchestrator"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

type fakeOrchestrator struct {
	lookups   int
	warmErr   error
	sessionID string
	cleared   bool
}

func (f *fakeOrchestrator) Lookup(_ context.Context, req orchestrator.Request) *orchestrator.Result {
	f.lookups++
	return &orchestrator.Result{
		Success:    true,
		AgentUsed:  "ubuntu",
		Confidence: 0.9,
		Data: &models.Envelope{
			Success:  true,
			Software: req.Software,
			Version:  req.Version,
			EOLDate:  "2030-04-23",
		},
	}
}

func (f *fakeOrchestrator) HealthCheck(context.Context) orchestrator.Health {
	return orchestrator.Health{
		Status:    "ok",
		SessionID: f.sessionID,
		Agents:    []orchestrator.AgentHealth{{Name: "microsoft", Sources: 2}},
		Cache:     map[string]string{"memory": "ok", "persistent": "not configured"},
	}
}

func (f *fakeOrchestrator) Communications() []models.Communication {
	return []models.Communication{{AgentName: "orchestrator", Action: models.ActionAgentSelection}}
}

func (f *fakeOrchestrator) ClearCommunications() orchestrator.ClearResult {
	f.cleared = true
	return orchestrator.ClearResult{Success: true, Cleared: 1, OldSession: f.sessionID, NewSession: "session-2"}
}

func (f *fakeOrchestrator) SessionID() string { return f.sessionID }

func (f *fakeOrchestrator) Warm(context.Context) (int, error) {
	if f.warmErr != nil {
		return 0, f.warmErr
	}
	return 42, nil
}

type payload = map[string]any

func newTestServer(t *testing.T) (*Server, *fakeOrchestrator) {
	t.Helper()
	orch := &fakeOrchestrator{sessionID: "session-1"}
	logger := slog.Default()
	registry := prometheus.NewRegistry()
	server := NewServer(
		orch,
		cache.New(nil, logger),
		telemetry.NewCollector(telemetry.NewMetrics(registry)),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		logger,
		4,
	)
	return server, orch
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleLookup(t *testing.T) {
	server, orch := newTestServer(t)
	router := server.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/eol", payload{
		"software": "Ubuntu", "version": "20.04",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.Equal(t, "ubuntu", gjson.Get(body, "agent_used").String())
	assert.Equal(t, "2030-04-23", gjson.Get(body, "data.eol_date").String())
	assert.Equal(t, 1, orch.lookups)
}

func TestHandleLookup_MissingSoftware(t *testing.T) {
	server, orch := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/eol", payload{"version": "1.0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, orch.lookups)
}

func TestHandleInventoryCheck(t *testing.T) {
	server, orch := newTestServer(t)

	records := make([]payload, 3)
	for i := range records {
		records[i] = payload{"software_name": fmt.Sprintf("app-%d", i), "software_version": "1.0"}
	}
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/inventory/check", payload{"records": records})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.EqualValues(t, 3, gjson.Get(body, "count").Int())
	assert.Equal(t, "app-0", gjson.Get(body, "results.0.record.software_name").String())
	assert.Equal(t, 3, orch.lookups)
}

func TestHandleInventoryCheck_TooManyRecords(t *testing.T) {
	server, _ := newTestServer(t)
	records := make([]payload, maxInventoryRecords+1)
	for i := range records {
		records[i] = payload{"software_name": "app"}
	}
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/inventory/check", payload{"records": records})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStats(t *testing.T) {
	server, _ := newTestServer(t)
	server.telemetry.RecordRequest("ubuntu", telemetry.Sample{Hit: true})

	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.EqualValues(t, 1, gjson.Get(body, "summary.total_requests").Int())
	assert.True(t, gjson.Get(body, "cache").Exists())
}

func TestHandleCachePurge(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/cache/purge", payload{"software": "ubuntu"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "purged").Exists())
}

func TestHandleCacheWarm(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/cache/warm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, gjson.Get(rec.Body.String(), "cycles").Int())
}

func TestHandleCacheWarm_Error(t *testing.T) {
	server, orch := newTestServer(t)
	orch.warmErr = context.Canceled
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/cache/warm", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleCommunications(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodGet, "/api/v1/session/communications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "session-1", gjson.Get(body, "session_id").String())
	assert.EqualValues(t, 1, gjson.Get(body, "count").Int())
}

func TestHandleSessionClear(t *testing.T) {
	server, orch := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodPost, "/api/v1/session/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orch.cleared)
	assert.Equal(t, "session-2", gjson.Get(rec.Body.String(), "new_session").String())
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "ok", gjson.Get(body, "status").String())
	assert.Equal(t, "microsoft", gjson.Get(body, "agents.0.name").String())
}

func TestMetricsRoute(t *testing.T) {
	server, _ := newTestServer(t)
	rec := doJSON(t, server.Router(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
