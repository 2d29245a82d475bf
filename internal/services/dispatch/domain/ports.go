// Package domain holds the ports of the event dispatcher
package domain

import (
	"context"

	"warden/internal/core/platform"
)

// Command is an admin keyword recognised in config channels
type Command string

const (
	CommandConfig  Command = "CONFIG"
	CommandOnboard Command = "ONBOARD"
	CommandEvict   Command = "EVICT"
)

// Commands in match priority order
var Commands = []Command{CommandConfig, CommandOnboard, CommandEvict}

// ApprovalEmoji marks a submission as approved
const ApprovalEmoji = "✅"

// DispatcherPort routes inbound platform events to the services
type DispatcherPort interface {
	Run(ctx context.Context, events <-chan platform.Event) error
	Handle(ctx context.Context, ev platform.Event) error
}
