package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phttp "warden/internal/platform/net/http"
	evdom "warden/internal/services/eviction/domain"
)

type fixedRuns []evdom.Run

func (f fixedRuns) Active() []evdom.Run { return f }

type three struct{}

func (three) Len() int { return 3 }

func serve(t *testing.T, d Deps, path string) (int, map[string]any) {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	code, body := serve(t, Deps{
		StartedAt: start,
		Configs:   three{},
		Now:       func() time.Time { return start.Add(90 * time.Second) },
	}, "/healthz")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["ok"])
	assert.Equal(t, float64(90), data["uptime"])
	assert.Equal(t, float64(3), data["communities"])
}

func TestEvictions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code, body := serve(t, Deps{
		Runs: fixedRuns{{Community: 77, ID: "r1", Started: now.Add(-2 * time.Hour), Trigger: evdom.TriggerSchedule}},
		Now:  func() time.Time { return now },
	}, "/v1/evictions")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["running"])
	run := data["runs"].([]any)[0].(map[string]any)
	assert.Equal(t, "77", run["community_id"])
	assert.Equal(t, "r1", run["run_id"])
	assert.Equal(t, "2 hours ago", run["elapsed"])
}

func TestMetricsAndVersion(t *testing.T) {
	code, _ := serve(t, Deps{}, "/metrics")
	assert.Equal(t, http.StatusOK, code)

	code, body := serve(t, Deps{}, "/version")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "warden", body["data"].(map[string]any)["service"])
}
