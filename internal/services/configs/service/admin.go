package service

import (
	"bytes"
	"context"
	"fmt"

	"warden/internal/core/platform"
	"warden/internal/platform/bind"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	dom "warden/internal/services/configs/domain"
	"warden/internal/services/configs/repo"
)

// Replies posted back to the admin channel
const (
	MsgShowConfig     = "Here is the current config. To change it upload the file with your changes while tagging me and mentioning 'config'"
	MsgUpdated        = "Configuration updated"
	MsgUpdateFailed   = "Configuration update failed"
	MsgUpdateNotSaved = "Configuration updated, but saving failed. Change will be lost if the bot restarts."
	MsgOnboardUsage   = "Attach exactly one <community id>.json file to onboard a community"
	MsgOnboardExists  = "Community %d is already configured, use 'config' to change it"
	MsgOnboarded      = "Community %d onboarded"
	MsgOnboardNotSave = "Community %d onboarded, but saving failed. It will be lost if the bot restarts."
)

// Admin implements the CONFIG and ONBOARD commands
type Admin struct {
	store dom.StorePort
	files dom.FilesPort
	fetch dom.Fetcher
	sink  platform.MessageSink
}

var _ dom.AdminPort = (*Admin)(nil)

// NewAdmin wires the admin flow
func NewAdmin(store dom.StorePort, files dom.FilesPort, fetch dom.Fetcher, sink platform.MessageSink) *Admin {
	return &Admin{store: store, files: files, fetch: fetch, sink: sink}
}

// Manage shows the community config when no <community>.json is attached,
// otherwise replaces it with the attached document
func (a *Admin) Manage(ctx context.Context, req dom.AdminRequest) error {
	ctx = logger.WithCommunity(ctx, uint64(req.Community))
	log := logger.C(ctx).With().Str("component", "configs-admin").Logger()

	current, ok := a.store.Get(req.Community)
	if !ok {
		return perr.NotFoundf("community %d is not configured", req.Community)
	}

	want := req.Community.String() + ".json"
	var upload *platform.Attachment
	for i := range req.Attachments {
		if req.Attachments[i].Filename == want {
			upload = &req.Attachments[i]
			break
		}
	}

	if upload == nil {
		body, err := repo.Render(current)
		if err != nil {
			return err
		}
		return a.sink.SendFile(ctx, req.Channel, want, body, MsgShowConfig)
	}

	next, err := a.decode(ctx, *upload)
	if err != nil {
		log.Info().Err(err).Msg("config upload rejected")
		a.reply(ctx, req.Channel, failure(err))
		return err
	}

	if !a.store.Replace(req.Community, next, dom.Unchanged(current)) {
		a.reply(ctx, req.Channel, MsgUpdateFailed)
		return perr.Conflictf("config for community %d changed during update", req.Community)
	}

	if err := a.files.Save(ctx, req.Community, next); err != nil {
		log.Error().Err(err).Msg("config replaced in memory but not saved")
		a.reply(ctx, req.Channel, MsgUpdateNotSaved)
		return err
	}

	log.Info().Msg("config updated")
	a.reply(ctx, req.Channel, MsgUpdated)
	return nil
}

// Onboard registers a brand new community from a single attached <community>.json document
func (a *Admin) Onboard(ctx context.Context, req dom.AdminRequest) error {
	var (
		upload    platform.Attachment
		community platform.ID
		found     int
	)
	for _, att := range req.Attachments {
		if id, ok := repo.CommunityFromFilename(att.Filename); ok {
			upload, community = att, id
			found++
		}
	}
	if found != 1 {
		a.reply(ctx, req.Channel, MsgOnboardUsage)
		return perr.Validationf("onboard expects one community document, got %d", found)
	}

	ctx = logger.WithCommunity(ctx, uint64(community))
	log := logger.C(ctx).With().Str("component", "configs-admin").Logger()

	cfg, err := a.decode(ctx, upload)
	if err != nil {
		log.Info().Err(err).Msg("onboard document rejected")
		a.reply(ctx, req.Channel, failure(err))
		return err
	}

	if !a.store.TryAdd(community, cfg) {
		a.reply(ctx, req.Channel, fmt.Sprintf(MsgOnboardExists, community))
		return perr.Conflictf("community %d already configured", community)
	}

	if err := a.files.Save(ctx, community, cfg); err != nil {
		log.Error().Err(err).Msg("community onboarded in memory but not saved")
		a.reply(ctx, req.Channel, fmt.Sprintf(MsgOnboardNotSave, community))
		return err
	}

	log.Info().Msg("community onboarded")
	a.reply(ctx, req.Channel, fmt.Sprintf(MsgOnboarded, community))
	return nil
}

func (a *Admin) decode(ctx context.Context, att platform.Attachment) (dom.CommunityConfig, error) {
	body, err := a.fetch.Fetch(ctx, att)
	if err != nil {
		return dom.CommunityConfig{}, err
	}
	return bind.DecodeJSON[dom.CommunityConfig](bytes.NewReader(body))
}

func (a *Admin) reply(ctx context.Context, channel platform.ID, text string) {
	if err := a.sink.SendText(ctx, channel, text); err != nil {
		logger.C(ctx).Warn().Err(err).Uint64("channel_id", uint64(channel)).Msg("admin reply failed")
	}
}

// failure renders a rejection with the validation detail when there is one
func failure(err error) string {
	if e, ok := perr.As(err); ok {
		switch e.Code() {
		case perr.ErrorCodeValidation, perr.ErrorCodeJSON:
			return MsgUpdateFailed + ": " + e.Message()
		}
	}
	return MsgUpdateFailed
}
