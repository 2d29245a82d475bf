package domain

import (
	"context"

	"warden/internal/core/platform"
)

// StorePort is the in-memory community config map
type StorePort interface {
	Get(community platform.ID) (CommunityConfig, bool)
	TryAdd(community platform.ID, cfg CommunityConfig) bool
	Replace(community platform.ID, next CommunityConfig, accept Validator) bool
	All() map[platform.ID]CommunityConfig
	Len() int
}

// FilesPort persists configs as <community>.json documents
type FilesPort interface {
	LoadAll(ctx context.Context) (map[platform.ID]CommunityConfig, error)
	Save(ctx context.Context, community platform.ID, cfg CommunityConfig) error
}

// Fetcher downloads message attachments
type Fetcher interface {
	Fetch(ctx context.Context, a platform.Attachment) ([]byte, error)
}

// AdminRequest is an admin command message addressed to the configs service
type AdminRequest struct {
	Community   platform.ID
	Channel     platform.ID
	Attachments []platform.Attachment
}

// AdminPort handles the CONFIG and ONBOARD commands
type AdminPort interface {
	Manage(ctx context.Context, req AdminRequest) error
	Onboard(ctx context.Context, req AdminRequest) error
}
