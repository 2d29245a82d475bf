package module

import (
	"time"

	"warden/internal/platform/config"
)

// Options controls eviction sweeps
type Options struct {
	Cap           int
	RemovalDelay  time.Duration
	SweepTimeout  time.Duration
	SchedulerTick time.Duration
}

// FromConfig reads with EVICTION_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("EVICTION_")
	return Options{
		Cap:           c.MayInt("CAP", 3),
		RemovalDelay:  c.MayDuration("REMOVAL_DELAY", 3*time.Second),
		SweepTimeout:  c.MayDuration("SWEEP_TIMEOUT", 0),
		SchedulerTick: c.MayDuration("SCHEDULER_TICK", time.Hour),
	}
}
