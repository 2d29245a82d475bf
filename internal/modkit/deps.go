// Package modkit provides module wiring and core deps
package modkit

import (
	"time"

	"warden/internal/core/platform"
	"warden/internal/platform/config"
	"warden/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log      logger.Logger
	Cfg      config.Conf
	Platform platform.Client

	// Now is the clock; nil means time.Now
	Now func() time.Time
}

// Clock returns Now or time.Now when unset
func (d Deps) Clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}
