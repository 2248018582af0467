// Package api serves the result catalogue over HTTP. GET endpoints are read-only.
// POST /api/v1/simulate runs one bounded experiment on demand and requires a bearer
// token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/experiments"
	"github.com/talgya/swarmsim/internal/metrics"
	"github.com/talgya/swarmsim/internal/persistence"
	"github.com/talgya/swarmsim/internal/runner"
)

// DefaultMaxWork caps swarm_size × step_count for on-demand runs.
const DefaultMaxWork = 200_000

// Server serves the catalogue.
type Server struct {
	DB         *persistence.DB
	Gatherer   prometheus.Gatherer // nil disables /metrics
	Telemetry  *runner.Telemetry
	Addr       string
	AdminKey   string // bearer token for POST endpoints; empty disables them
	Version    string
	MaxWork    int
	TrustProxy bool // rate-limit by X-Forwarded-For

	started time.Time
	limiter *RateLimiter
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(30, time.Hour)
		s.limiter.TrustProxy = s.TrustProxy
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/experiments", s.handleExperiments)
		r.Get("/sweeps", s.handleSweeps)
		r.Get("/sweeps/{id}", s.handleSweep)
		r.Get("/sweeps/{id}/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)

		r.With(s.adminOnly, s.limiter.Middleware).Post("/simulate", s.handleSimulate)
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve listens on Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		slog.Info("HTTP API stopped")
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints are disabled")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != s.AdminKey {
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last, err := s.DB.GetMeta("last_sweep")
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "swarmsim",
		"version":     s.Version,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"last_sweep":  last,
		"metrics":     metrics.Names(),
		"experiments": experiments.Names(),
	})
}

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Runs        int    `json:"runs"`
	}
	var out []entry
	for _, name := range experiments.Names() {
		e, err := experiments.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, entry{Name: e.Name, Description: e.Description, Runs: len(e.Configs())})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSweeps(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	sweeps, err := s.DB.ListSweeps(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sweeps == nil {
		sweeps = []persistence.Sweep{}
	}
	writeJSON(w, http.StatusOK, sweeps)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	sw, err := s.DB.GetSweep(chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sweep":   sw,
		"summary": json.RawMessage(sw.SummaryJSON),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.DB.GetSweep(id); err != nil {
		writeLookupError(w, err)
		return
	}
	runs, err := s.DB.ListRuns(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.DB.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":    run,
		"config": json.RawMessage(run.ConfigJSON),
		"result": json.RawMessage(run.ResultJSON),
	})
}

// handleSimulate runs the posted experiment. Fields missing from the body keep their
// defaults.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	cfg := config.Default()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxWork := s.MaxWork
	if maxWork <= 0 {
		maxWork = DefaultMaxWork
	}
	// Both factors are positive after Validate. The product may overflow int.
	if cfg.SwarmSize > maxWork || cfg.StepCount > maxWork/cfg.SwarmSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("swarm_size %d × step_count %d exceeds limit %d", cfg.SwarmSize, cfg.StepCount, maxWork))
		return
	}

	o := runner.New(1, s.Telemetry).RunSweep(r.Context(), []config.Experiment{cfg})[0]
	if o.Err != nil {
		writeError(w, http.StatusInternalServerError, o.Err.Error())
		return
	}
	writeJSON(w, http.StatusOK, o.Result)
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
