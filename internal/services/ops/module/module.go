// Package module mounts the ops endpoints
package module

import (
	"time"

	"warden/internal/modkit"
	phttp "warden/internal/platform/net/http"
	evdom "warden/internal/services/eviction/domain"
	opshttp "warden/internal/services/ops/http"
)

// Module implements the modkit module contract
type Module struct {
	deps      modkit.Deps
	configs   opshttp.Counter
	runs      evdom.RunsPort
	startedAt time.Time
}

// New constructs the ops module
func New(deps modkit.Deps, configs opshttp.Counter, runs evdom.RunsPort) *Module {
	return &Module{deps: deps, configs: configs, runs: runs, startedAt: deps.Clock()()}
}

// MountRoutes mounts /healthz, /version, /metrics and /v1/evictions
func (m *Module) MountRoutes(r phttp.Router) {
	opshttp.Register(r, opshttp.Deps{
		StartedAt: m.startedAt,
		Configs:   m.configs,
		Runs:      m.runs,
		Now:       m.deps.Clock(),
	})
}

// Name returns the module name
func (m *Module) Name() string { return "ops" }

// Ports returns nothing; ops is a leaf
func (m *Module) Ports() any { return nil }
