// Package platform defines the chat-platform seams the services talk to.
// Adapters (discord, fakes in tests) implement these; services never import an SDK directly.
package platform

import (
	"context"
	"io"
)

// RoleClient grants and revokes roles on community members
type RoleClient interface {
	AddRole(ctx context.Context, community, user, role ID, reason string) error
	RemoveRole(ctx context.Context, community, user, role ID, reason string) error
	HasRole(ctx context.Context, community, user, role ID) (bool, error)
}

// AuditTrailClient reads one page of the community audit log.
// before == 0 means "start from the newest entry". Ordering inside a page is not guaranteed
type AuditTrailClient interface {
	FetchAuditPage(ctx context.Context, community, before ID, limit int, kind AuditKind) ([]AuditEntry, error)
}

// MemberDirectory enumerates members after a bulk refresh of the member list
type MemberDirectory interface {
	MembersWithRole(ctx context.Context, community, role ID) ([]ID, error)
}

// MessageSink posts into text channels
type MessageSink interface {
	SendText(ctx context.Context, channel ID, text string) error
	SendFile(ctx context.Context, channel ID, filename string, body io.Reader, caption string) error
}

// MessageLookup resolves the author of a message, used when a reaction only carries ids
type MessageLookup interface {
	MessageAuthor(ctx context.Context, channel, message ID) (ID, error)
}

// Client bundles every seam a live adapter provides
type Client interface {
	RoleClient
	AuditTrailClient
	MemberDirectory
	MessageSink
	MessageLookup

	// Self is the bot's own user id
	Self() ID
}
