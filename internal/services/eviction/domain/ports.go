package domain

import (
	"context"

	"warden/internal/core/platform"
	cfgdom "warden/internal/services/configs/domain"
)

// EvictorPort runs sweeps
type EvictorPort interface {
	RunEviction(ctx context.Context, req Request) (Result, error)
}

// RunsPort lists sweeps in progress
type RunsPort interface {
	Active() []Run
}

// SchedulerPort drives periodic sweeps until ctx ends
type SchedulerPort interface {
	Run(ctx context.Context) error
}

// ConfigSource is the slice of the config store the scheduler reads
type ConfigSource interface {
	All() map[platform.ID]cfgdom.CommunityConfig
}
