// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "warden/internal/platform/net/http"
)

// Module defines the minimal contract used by modkit
// Modules without ops endpoints implement MountRoutes as a no-op
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
