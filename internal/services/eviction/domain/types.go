// Package domain holds eviction sweep types and the ports of the eviction service
package domain

import (
	"time"

	"warden/internal/core/platform"
	cfgdom "warden/internal/services/configs/domain"
)

// Trigger says who asked for a sweep
type Trigger string

const (
	TriggerCommand  Trigger = "command"
	TriggerSchedule Trigger = "schedule"
)

// Request asks for one sweep of a community
type Request struct {
	Community platform.ID
	Config    cfgdom.CommunityConfig

	// Channel receives progress notices; zero sends none
	Channel platform.ID
	Trigger Trigger
}

// Run is the in-progress marker of a community sweep
type Run struct {
	Community platform.ID `json:"community_id,string"`
	ID        string      `json:"run_id"`
	Started   time.Time   `json:"started_at"`
	Trigger   Trigger     `json:"trigger"`
}

// Outcome classifies how a sweep request ended
type Outcome string

const (
	// OutcomeStarted is a sweep that took its slot and is running
	OutcomeStarted        Outcome = "started"
	OutcomeCompleted      Outcome = "completed"
	OutcomeBusy           Outcome = "busy"
	OutcomeAlreadyRunning Outcome = "already_running"
	OutcomeFailed         Outcome = "failed"
)

// Result summarises one sweep request
type Result struct {
	Outcome Outcome
	Run     Run

	Grantees int
	Members  int
	Removed  int
	Duration time.Duration
}

// Grantees is the set of users granted the membership role inside the window
type Grantees map[platform.ID]struct{}

// Has reports whether user was granted the role inside the window
func (g Grantees) Has(user platform.ID) bool {
	_, ok := g[user]
	return ok
}

// OneMonth is the trailing window ending at now: one calendar month
func OneMonth(now time.Time) time.Duration {
	return now.Sub(now.AddDate(0, -1, 0))
}
