// Package service routes inbound chat events to the role, config and eviction services
package service

import (
	"context"
	"sync"

	"warden/internal/core/normalize"
	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	cfgdom "warden/internal/services/configs/domain"
	dom "warden/internal/services/dispatch/domain"
	evdom "warden/internal/services/eviction/domain"
	roledom "warden/internal/services/roles/domain"
)

// Route labels for metrics and logs
const (
	routeIgnored    = "ignored"
	routeSubmission = "submission"
	routeApproval   = "approval"
	routeConfig     = "config"
	routeOnboard    = "onboard"
	routeEvict      = "evict"
)

// Config controls the worker pool
type Config struct {
	Concurrency int
}

// Ports are the services events are routed to
type Ports struct {
	Configs cfgdom.StorePort
	Admin   cfgdom.AdminPort
	Roles   roledom.TransitionsPort
	Evictor evdom.EvictorPort
	Lookup  platform.MessageLookup
	Self    platform.ID
}

// Svc is the dispatcher
type Svc struct {
	cfg Config
	p   Ports
}

var _ dom.DispatcherPort = (*Svc)(nil)

// New constructs the dispatcher
func New(cfg Config, p Ports) *Svc {
	return &Svc{cfg: cfg, p: p}
}

// Run consumes events until ctx ends or events is closed, handling at most
// Concurrency events at a time, then waits for in-flight handlers
func (s *Svc) Run(ctx context.Context, events <-chan platform.Event) error {
	log := logger.Named("dispatch")
	sem := make(chan struct{}, max(1, s.cfg.Concurrency))
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			wg.Add(1)
			go func() {
				defer func() {
					<-sem
					wg.Done()
				}()
				if err := s.Handle(ctx, ev); err != nil {
					log.Warn().Err(err).Str("code", perr.CodeOf(err).String()).Msg("event failed")
				}
			}()
		}
	}
}

// Handle routes a single event
func (s *Svc) Handle(ctx context.Context, ev platform.Event) error {
	eventsInFlight.Inc()
	defer eventsInFlight.Dec()

	var (
		route = routeIgnored
		err   error
	)
	switch {
	case ev.Message != nil:
		route, err = s.onMessage(ctx, *ev.Message)
	case ev.Reaction != nil:
		route, err = s.onReaction(ctx, *ev.Reaction)
	}

	result := "ok"
	if err != nil {
		result = perr.CodeOf(err).String()
	}
	eventsHandled.WithLabelValues(route, result).Inc()
	return err
}

func (s *Svc) onMessage(ctx context.Context, m platform.MessageEvent) (string, error) {
	if m.AuthorIsBot || m.Author == s.p.Self {
		return routeIgnored, nil
	}
	cfg, ok := s.p.Configs.Get(m.Community)
	if !ok {
		return routeIgnored, nil
	}
	ctx = logger.WithCommunity(ctx, uint64(m.Community))

	if cfg.SubmissionChannelID != 0 && m.Channel == cfg.SubmissionChannelID {
		if len(m.Attachments) == 0 {
			return routeIgnored, nil
		}
		return routeSubmission, s.p.Roles.OnSubmissionMessage(ctx, m.Community, cfg, m.Author)
	}

	if !cfg.IsConfigChannel(m.Channel) || !m.Mentioned(s.p.Self) {
		return routeIgnored, nil
	}
	cmd, ok := ParseCommand(m.Content)
	if !ok {
		return routeIgnored, nil
	}

	logger.C(ctx).Info().Str("command", string(cmd)).Uint64("user_id", uint64(m.Author)).Msg("admin command")
	req := cfgdom.AdminRequest{Community: m.Community, Channel: m.Channel, Attachments: m.Attachments}
	switch cmd {
	case dom.CommandConfig:
		return routeConfig, s.p.Admin.Manage(ctx, req)
	case dom.CommandOnboard:
		return routeOnboard, s.p.Admin.Onboard(ctx, req)
	default:
		_, err := s.p.Evictor.RunEviction(ctx, evdom.Request{
			Community: m.Community,
			Config:    cfg,
			Channel:   m.Channel,
			Trigger:   evdom.TriggerCommand,
		})
		return routeEvict, err
	}
}

func (s *Svc) onReaction(ctx context.Context, r platform.ReactionEvent) (string, error) {
	if r.Emoji != dom.ApprovalEmoji || r.User == s.p.Self {
		return routeIgnored, nil
	}
	cfg, ok := s.p.Configs.Get(r.Community)
	if !ok || cfg.SubmissionChannelID == 0 || r.Channel != cfg.SubmissionChannelID {
		return routeIgnored, nil
	}
	ctx = logger.WithCommunity(ctx, uint64(r.Community))

	allowed, err := s.p.Roles.MayApprove(ctx, r.Community, cfg, r.User)
	if err != nil {
		return routeApproval, err
	}
	if !allowed {
		logger.C(ctx).Debug().Uint64("user_id", uint64(r.User)).Msg("approval reaction from non-approver")
		return routeIgnored, nil
	}

	author, err := s.p.Lookup.MessageAuthor(ctx, r.Channel, r.Message)
	if err != nil {
		return routeApproval, perr.Wrap(err, perr.ErrorCodeUnavailable, "look up submission author")
	}
	if author == s.p.Self {
		return routeIgnored, nil
	}
	return routeApproval, s.p.Roles.OnApprovalReaction(ctx, r.Community, cfg, author)
}

// ParseCommand finds the first admin keyword in text, case and width insensitive
func ParseCommand(text string) (dom.Command, bool) {
	keys := make([]string, len(dom.Commands))
	for i, c := range dom.Commands {
		keys[i] = string(c)
	}
	k, ok := normalize.ContainsFirst(text, keys...)
	return dom.Command(k), ok
}
