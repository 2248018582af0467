package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/persistence"
	"github.com/talgya/swarmsim/internal/runner"
)

type fixture struct {
	srv     *httptest.Server
	db      *persistence.DB
	sweepID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.Name = "api"
	cfg.SwarmSize = 4
	cfg.StepCount = 10
	cfg.MetricWindow = 4
	res, err := runner.RunOne(cfg)
	require.NoError(t, err)
	sw, err := db.SaveSweep("api", []runner.Outcome{{Index: 0, Config: cfg, Result: res}}, map[string]int{"runs": 1})
	require.NoError(t, err)
	require.NoError(t, db.SaveMeta("last_sweep", sw.ID))

	reg := prometheus.NewRegistry()
	s := &Server{
		DB:        db,
		Gatherer:  reg,
		Telemetry: runner.NewTelemetry(reg),
		AdminKey:  "secret",
		Version:   "test",
		MaxWork:   5000,
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return fixture{srv: srv, db: db, sweepID: sw.ID}
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	var body map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/api/v1/status", &body))
	assert.Equal(t, "swarmsim", body["name"])
	assert.Equal(t, f.sweepID, body["last_sweep"])
}

func TestSweepRoutes(t *testing.T) {
	f := newFixture(t)

	var sweeps []map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/api/v1/sweeps", &sweeps))
	require.Len(t, sweeps, 1)
	assert.Equal(t, f.sweepID, sweeps[0]["id"])

	var detail map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/api/v1/sweeps/"+f.sweepID, &detail))
	assert.Equal(t, map[string]any{"runs": 1.0}, detail["summary"])

	var runs []map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/api/v1/sweeps/"+f.sweepID+"/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 4.0, runs[0]["swarm_size"])

	var run map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/api/v1/runs/"+runs[0]["id"].(string), &run))
	result := run["result"].(map[string]any)
	assert.Contains(t, result["values"], config.MetricIntegration)

	assert.Equal(t, http.StatusNotFound, getJSON(t, f.srv.URL+"/api/v1/sweeps/nope", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, f.srv.URL+"/api/v1/sweeps/nope/runs", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, f.srv.URL+"/api/v1/runs/nope", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, f.srv.URL+"/api/v1/sweeps?limit=0", nil))
}

func TestExperimentsRoute(t *testing.T) {
	f := newFixture(t)
	var out []map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.srv.URL+"/api/v1/experiments", &out))
	require.NotEmpty(t, out)
	assert.Equal(t, "baseline", out[0]["name"])
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSimulate(t *testing.T) {
	f := newFixture(t)
	url := f.srv.URL + "/api/v1/simulate"

	assert.Equal(t, http.StatusUnauthorized, post(t, url, "", `{}`).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, post(t, url, "wrong", `{}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, url, "secret", `{"swarm_size": 0}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, url, "secret", `{"colour": "red"}`).StatusCode)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(t, url, "secret", `{"swarm_size": 100, "step_count": 100}`).StatusCode)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(t, url, "secret", `{"swarm_size": 4294967296, "step_count": 4294967296}`).StatusCode)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(t, url, "secret", `{"swarm_size": 1, "step_count": 5001}`).StatusCode)

	resp := post(t, url, "secret", `{"name": "adhoc", "swarm_size": 6, "step_count": 20, "metric_window": 5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	key := res["key"].(map[string]any)
	assert.Equal(t, "adhoc", key["name"])
	assert.Equal(t, 21.0, res["length"])

	metricsResp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestSimulateDisabledWithoutKey(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 61, rl.RetryAfter("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	request := func(xff string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		req.Header.Set("X-Forwarded-For", xff)
		return req
	}

	t.Run("remote address by default", func(t *testing.T) {
		h := NewRateLimiter(1, time.Hour).Middleware(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.1"))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		// A rotated header does not buy a fresh bucket.
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.2"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Equal(t, "192.0.2.7", clientAddr(request("10.0.0.2"), false))
	})

	t.Run("forwarded hop behind trusted proxy", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)
		rl.TrustProxy = true
		h := rl.Middleware(ok)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.1, 10.0.0.9"))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.2"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "10.0.0.1", clientAddr(request("10.0.0.1, 10.0.0.9"), true))
	})
}
