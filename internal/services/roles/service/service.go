// Package service implements submission and approval role transitions
package service

import (
	"context"

	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	cfgdom "warden/internal/services/configs/domain"
	dom "warden/internal/services/roles/domain"
)

// Audit reasons attached to role changes
const (
	SubmissionReason = "Submission received"
	ApprovalReason   = "Automated membership role refresh"
)

// Svc applies role transitions through the platform role client
type Svc struct {
	roles platform.RoleClient
	self  platform.ID
}

var _ dom.TransitionsPort = (*Svc)(nil)

// New returns the transition service; self is the bot user whose reactions are ignored
func New(roles platform.RoleClient, self platform.ID) *Svc {
	return &Svc{roles: roles, self: self}
}

// OnSubmissionMessage gives user the submission role unless they already have it.
// Communities without a submission role are left alone
func (s *Svc) OnSubmissionMessage(ctx context.Context, community platform.ID, cfg cfgdom.CommunityConfig, user platform.ID) error {
	if cfg.SubmissionRoleID == 0 {
		return nil
	}
	has, err := s.roles.HasRole(ctx, community, user, cfg.SubmissionRoleID)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "check submission role")
	}
	if has {
		return nil
	}
	if err := s.roles.AddRole(ctx, community, user, cfg.SubmissionRoleID, SubmissionReason); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "grant submission role")
	}
	logger.C(ctx).Info().Uint64("user_id", uint64(user)).Msg("submission role granted")
	return nil
}

// OnApprovalReaction clears both roles and grants membership afresh, so the audit trail
// always carries a new grant for renewing members
func (s *Svc) OnApprovalReaction(ctx context.Context, community platform.ID, cfg cfgdom.CommunityConfig, user platform.ID) error {
	if cfg.MembershipRoleID == 0 {
		return nil
	}
	for _, role := range []platform.ID{cfg.SubmissionRoleID, cfg.MembershipRoleID} {
		if role == 0 {
			continue
		}
		has, err := s.roles.HasRole(ctx, community, user, role)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "check role")
		}
		if !has {
			continue
		}
		if err := s.roles.RemoveRole(ctx, community, user, role, ApprovalReason); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "remove role %d", role)
		}
	}
	if err := s.roles.AddRole(ctx, community, user, cfg.MembershipRoleID, ApprovalReason); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "grant membership role")
	}
	logger.C(ctx).Info().Uint64("user_id", uint64(user)).Msg("membership granted")
	return nil
}

// MayApprove reports whether reactor may approve submissions in community
func (s *Svc) MayApprove(ctx context.Context, community platform.ID, cfg cfgdom.CommunityConfig, reactor platform.ID) (bool, error) {
	if reactor == s.self {
		return false, nil
	}
	if !cfg.RequiresApproverRole() {
		return true, nil
	}
	for _, role := range cfg.ApproverRoleIDs {
		has, err := s.roles.HasRole(ctx, community, reactor, role)
		if err != nil {
			return false, perr.Wrap(err, perr.ErrorCodeUnavailable, "check approver role")
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}
