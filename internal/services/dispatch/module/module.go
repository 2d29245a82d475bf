// Package module wires the event dispatcher and exposes its ports
package module

import (
	"warden/internal/modkit"
	"warden/internal/platform/config"
	phttp "warden/internal/platform/net/http"
	dom "warden/internal/services/dispatch/domain"
	"warden/internal/services/dispatch/service"
)

// Options controls the dispatcher worker pool
type Options struct {
	Concurrency int
}

// FromConfig reads with DISPATCH_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DISPATCH_")
	return Options{
		Concurrency: c.MayInt("CONCURRENCY", 8),
	}
}

// Ports holds the ports exposed by the dispatch module
type Ports struct {
	Dispatcher dom.DispatcherPort
}

// Module defines the dispatch module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the dispatcher over the ports of the modules it routes to
func New(deps modkit.Deps, routes service.Ports, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if routes.Lookup == nil {
		routes.Lookup = deps.Platform
	}
	if routes.Self == 0 && deps.Platform != nil {
		routes.Self = deps.Platform.Self()
	}

	return &Module{
		deps:  deps,
		ports: Ports{Dispatcher: service.New(service.Config{Concurrency: opts.Concurrency}, routes)},
	}
}

// Ports returns the module ports (Dispatcher)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "dispatch" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}
