// Package http provides the ops endpoints: health, version, metrics and running sweeps
package http

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warden/internal/core/version"
	phttp "warden/internal/platform/net/http"
	evdom "warden/internal/services/eviction/domain"
)

// Counter reports how many communities are configured
type Counter interface {
	Len() int
}

// Deps are the handler dependencies
type Deps struct {
	StartedAt time.Time
	Configs   Counter
	Runs      evdom.RunsPort
	Now       func() time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts the ops routes
func Register(r phttp.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{deps: d}

	r.Get("/healthz", h.health)
	r.Get("/version", h.version)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(v phttp.Router) {
		v.Get("/evictions", h.evictions)
	})
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK          bool   `json:"ok"`
	Started     string `json:"started"`
	Uptime      int64  `json:"uptime"`
	Communities int    `json:"communities"`
}

// RunView is one running sweep
type RunView struct {
	evdom.Run
	Elapsed string `json:"elapsed"`
}

// EvictionsResponse lists running sweeps
type EvictionsResponse struct {
	Running int       `json:"running"`
	Runs    []RunView `json:"runs"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:      true,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.Now().Sub(h.deps.StartedAt) / time.Second),
	}
	if h.deps.Configs != nil {
		resp.Communities = h.deps.Configs.Len()
	}
	phttp.RespondOK(w, r, resp)
}

func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	phttp.RespondOK(w, r, version.Info())
}

func (h *handlers) evictions(w http.ResponseWriter, r *http.Request) {
	resp := EvictionsResponse{Runs: []RunView{}}
	if h.deps.Runs != nil {
		now := h.deps.Now()
		for _, run := range h.deps.Runs.Active() {
			resp.Runs = append(resp.Runs, RunView{Run: run, Elapsed: humanize.RelTime(run.Started, now, "ago", "from now")})
		}
	}
	resp.Running = len(resp.Runs)
	phttp.RespondOK(w, r, resp)
}
