// Package domain holds the ports of the role transition service
package domain

import (
	"context"

	"warden/internal/core/platform"
	cfgdom "warden/internal/services/configs/domain"
)

// TransitionsPort moves users between the submission and membership roles
type TransitionsPort interface {
	OnSubmissionMessage(ctx context.Context, community platform.ID, cfg cfgdom.CommunityConfig, user platform.ID) error
	OnApprovalReaction(ctx context.Context, community platform.ID, cfg cfgdom.CommunityConfig, user platform.ID) error
	MayApprove(ctx context.Context, community platform.ID, cfg cfgdom.CommunityConfig, reactor platform.ID) (bool, error)
}
