// Package domain holds the per-community configuration model and the ports of the configs service
package domain

import (
	"slices"
	"time"

	"warden/internal/core/platform"
)

// CommunityConfig is the per-community settings record.
// Values are treated as immutable once stored; replace the whole record to change it.
// Ids left at zero switch the matching flow off rather than invalidating the record
type CommunityConfig struct {
	MembershipRoleID    platform.ID `json:"MembershipRoleId"`
	MembershipChannelID platform.ID `json:"MembershipChannelId"`
	SubmissionRoleID    platform.ID `json:"SubmissionRoleId"`
	SubmissionChannelID platform.ID `json:"SubmissionChannelId"`

	ApproverRoleIDs []platform.ID `json:"ApproverRoleIds" validate:"omitempty,dive,required"`

	// kept for file compatibility, not enforced
	BotAdministratorRoleIDs []platform.ID `json:"BotAdministratorRoleIds"`
	BotAdministratorUserIDs []platform.ID `json:"BotAdministratorUserIds"`

	BotConfigurationChannelIDs []platform.ID `json:"BotConfigurationChannelIds" validate:"omitempty,dive,required"`

	// 0 disables scheduled sweeps
	MembershipExpirationCheckIntervalDays int `json:"MembershipExpirationCheckIntervalDays" validate:"min=0"`
}

// Equal compares two configs field by field
func (c CommunityConfig) Equal(o CommunityConfig) bool {
	return c.MembershipRoleID == o.MembershipRoleID &&
		c.MembershipChannelID == o.MembershipChannelID &&
		c.SubmissionRoleID == o.SubmissionRoleID &&
		c.SubmissionChannelID == o.SubmissionChannelID &&
		c.MembershipExpirationCheckIntervalDays == o.MembershipExpirationCheckIntervalDays &&
		slices.Equal(c.ApproverRoleIDs, o.ApproverRoleIDs) &&
		slices.Equal(c.BotAdministratorRoleIDs, o.BotAdministratorRoleIDs) &&
		slices.Equal(c.BotAdministratorUserIDs, o.BotAdministratorUserIDs) &&
		slices.Equal(c.BotConfigurationChannelIDs, o.BotConfigurationChannelIDs)
}

// Clone returns a copy that shares no backing arrays with c
func (c CommunityConfig) Clone() CommunityConfig {
	c.ApproverRoleIDs = slices.Clone(c.ApproverRoleIDs)
	c.BotAdministratorRoleIDs = slices.Clone(c.BotAdministratorRoleIDs)
	c.BotAdministratorUserIDs = slices.Clone(c.BotAdministratorUserIDs)
	c.BotConfigurationChannelIDs = slices.Clone(c.BotConfigurationChannelIDs)
	return c
}

// IsConfigChannel reports whether admin commands are accepted in channel
func (c CommunityConfig) IsConfigChannel(channel platform.ID) bool {
	return slices.Contains(c.BotConfigurationChannelIDs, channel)
}

// RequiresApproverRole reports whether approvals are restricted to ApproverRoleIDs
func (c CommunityConfig) RequiresApproverRole() bool { return len(c.ApproverRoleIDs) > 0 }

// ReportChannel picks the channel unattended sweeps report to: the lowest configuration channel id
func (c CommunityConfig) ReportChannel() (platform.ID, bool) {
	if len(c.BotConfigurationChannelIDs) == 0 {
		return 0, false
	}
	return slices.Min(c.BotConfigurationChannelIDs), true
}

// ExpirationInterval is the scheduled sweep period, zero when disabled
func (c CommunityConfig) ExpirationInterval() time.Duration {
	if c.MembershipExpirationCheckIntervalDays <= 0 {
		return 0
	}
	return time.Duration(c.MembershipExpirationCheckIntervalDays) * 24 * time.Hour
}

// Validator decides whether next may replace prev
type Validator func(next, prev CommunityConfig) bool

// Unchanged accepts a replacement only while the stored value still equals expected
func Unchanged(expected CommunityConfig) Validator {
	return func(_, prev CommunityConfig) bool { return prev.Equal(expected) }
}
