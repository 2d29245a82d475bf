// Package module wires the role transition service and exposes its ports
package module

import (
	"warden/internal/modkit"
	phttp "warden/internal/platform/net/http"
	dom "warden/internal/services/roles/domain"
	"warden/internal/services/roles/service"
)

// Ports holds the ports exposed by the roles module
type Ports struct {
	Transitions dom.TransitionsPort
}

// Module defines the roles module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the roles module
func New(deps modkit.Deps) *Module {
	return &Module{
		deps:  deps,
		ports: Ports{Transitions: service.New(deps.Platform, deps.Platform.Self())},
	}
}

// Ports returns the module ports (Transitions)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "roles" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}
