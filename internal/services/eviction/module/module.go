// Package module wires eviction sweeps and the sweep scheduler and exposes their ports
package module

import (
	"warden/internal/modkit"
	phttp "warden/internal/platform/net/http"
	dom "warden/internal/services/eviction/domain"
	"warden/internal/services/eviction/service"
)

// Module defines the eviction module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the eviction module; configs feeds the scheduler
func New(deps modkit.Deps, configs dom.ConfigSource, overrides Options) *Module {
	// Load defaults, then apply non-zero overrides
	opts := FromConfig(deps.Cfg)

	if overrides.Cap != 0 {
		opts.Cap = overrides.Cap
	}
	if overrides.RemovalDelay != 0 {
		opts.RemovalDelay = overrides.RemovalDelay
	}
	if overrides.SweepTimeout != 0 {
		opts.SweepTimeout = overrides.SweepTimeout
	}
	if overrides.SchedulerTick != 0 {
		opts.SchedulerTick = overrides.SchedulerTick
	}

	coord := service.NewCoordinator(deps.Platform, service.Config{
		Cap:          opts.Cap,
		RemovalDelay: opts.RemovalDelay,
		SweepTimeout: opts.SweepTimeout,
	}, deps.Clock())

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{
		Evictor:   coord, // coord implements EvictorPort
		Runs:      coord, // and RunsPort
		Scheduler: service.NewScheduler(configs, coord, opts.SchedulerTick, deps.Clock()),
	}
	return m
}

// Ports returns the module ports (Evictor, Runs, Scheduler)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "eviction" }

// MountRoutes returns no HTTP routes; the ops module lists runs
func (m *Module) MountRoutes(_ phttp.Router) {}
