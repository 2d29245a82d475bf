// Package service implements eviction sweeps: the audit scan, the run registry, the paced
// role removal and the periodic scheduler
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	dom "warden/internal/services/eviction/domain"
)

// Notices posted to the requesting channel
const (
	MsgBusy     = "Several other communities are cleaning memberships right now. Please try again later."
	MsgElapsed  = "Cleanup started %s"
	MsgStarting = "Beginning membership expiration cleanup. To be friendly to the platform, this may take a long time."
	MsgDone     = "Membership cleanup has completed. Removed %d of %d members."
	MsgFailed   = "Membership cleanup stopped after removing %d members because the platform returned an error. Run it again to continue."
)

// RemovalReason tags every role removal in the platform audit log
const RemovalReason = "Automated membership expiration"

// Config controls sweeps
type Config struct {
	Cap          int
	RemovalDelay time.Duration

	// SweepTimeout bounds a whole sweep; zero means none
	SweepTimeout time.Duration
}

// Coordinator runs at most one sweep per community and at most Cap sweeps overall
type Coordinator struct {
	scanner *Scanner
	members platform.MemberDirectory
	roles   platform.RoleClient
	sink    platform.MessageSink
	runs    *Registry
	cfg     Config
	now     func() time.Time
}

var (
	_ dom.EvictorPort = (*Coordinator)(nil)
	_ dom.RunsPort    = (*Coordinator)(nil)
)

// NewCoordinator wires a coordinator over the platform client
func NewCoordinator(client platform.Client, cfg Config, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		scanner: NewScanner(client, now),
		members: client,
		roles:   client,
		sink:    client,
		runs:    NewRegistry(cfg.Cap),
		cfg:     cfg,
		now:     now,
	}
}

// Active lists sweeps in progress
func (c *Coordinator) Active() []dom.Run { return c.runs.Active() }

// Registry exposes the run registry
func (c *Coordinator) Registry() *Registry { return c.runs }

// RunEviction sweeps one community: members holding the membership role without a grant
// inside the last calendar month lose it
func (c *Coordinator) RunEviction(ctx context.Context, req dom.Request) (dom.Result, error) {
	if req.Trigger == "" {
		req.Trigger = dom.TriggerCommand
	}
	ctx = logger.WithCommunity(ctx, uint64(req.Community))

	run := dom.Run{Community: req.Community, ID: uuid.NewString(), Started: c.now(), Trigger: req.Trigger}
	holder, outcome := c.runs.Acquire(run)
	switch outcome {
	case dom.OutcomeBusy:
		sweepsTotal.WithLabelValues(string(outcome), string(req.Trigger)).Inc()
		logger.C(ctx).Info().Int("cap", c.runs.Cap()).Msg("sweep rejected, too many running")
		c.notify(ctx, req.Channel, MsgBusy)
		return dom.Result{Outcome: outcome}, nil
	case dom.OutcomeAlreadyRunning:
		sweepsTotal.WithLabelValues(string(outcome), string(req.Trigger)).Inc()
		c.notify(ctx, req.Channel, fmt.Sprintf(MsgElapsed, humanize.RelTime(holder.Started, c.now(), "ago", "from now")))
		return dom.Result{Outcome: outcome, Run: holder}, nil
	}

	sweepsRunning.Inc()
	defer func() {
		c.runs.Release(req.Community, run.ID)
		sweepsRunning.Dec()
	}()

	ctx = logger.WithRun(ctx, run.ID)
	log := logger.C(ctx).With().Str("component", "eviction").Str("trigger", string(req.Trigger)).Logger()

	if c.cfg.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SweepTimeout)
		defer cancel()
	}

	log.Info().Msg("sweep started")
	c.notify(ctx, req.Channel, MsgStarting)

	res, err := c.sweep(ctx, req)
	res.Run = run
	res.Duration = c.now().Sub(run.Started)
	sweepDuration.Observe(res.Duration.Seconds())

	if err != nil {
		res.Outcome = dom.OutcomeFailed
		sweepsTotal.WithLabelValues(string(res.Outcome), string(req.Trigger)).Inc()
		log.Error().Err(err).Int("removed", res.Removed).Msg("sweep failed")
		c.notify(ctx, req.Channel, fmt.Sprintf(MsgFailed, res.Removed))
		return res, err
	}

	res.Outcome = dom.OutcomeCompleted
	sweepsTotal.WithLabelValues(string(res.Outcome), string(req.Trigger)).Inc()
	log.Info().
		Int("grantees", res.Grantees).
		Int("members", res.Members).
		Int("removed", res.Removed).
		Dur("took", res.Duration).
		Msg("sweep completed")
	c.notify(ctx, req.Channel, fmt.Sprintf(MsgDone, res.Removed, res.Members))
	return res, nil
}

func (c *Coordinator) sweep(ctx context.Context, req dom.Request) (dom.Result, error) {
	var (
		res      dom.Result
		grantees dom.Grantees
		members  []platform.ID
		role     = req.Config.MembershipRoleID
	)

	if role == 0 {
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		grantees, err = c.scanner.CollectRecentGrantees(gctx, req.Community, role, dom.OneMonth(c.now()))
		return err
	})
	g.Go(func() error {
		var err error
		members, err = c.members.MembersWithRole(gctx, req.Community, role)
		return perr.WrapIf(err, perr.ErrorCodeUnavailable, "fetch members")
	})
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Grantees = len(grantees)
	res.Members = len(members)

	for _, user := range members {
		if grantees.Has(user) {
			continue
		}
		if res.Removed > 0 {
			if err := c.pause(ctx); err != nil {
				return res, err
			}
		}
		if err := c.roles.RemoveRole(ctx, req.Community, user, role, RemovalReason); err != nil {
			return res, perr.Wrapf(err, perr.ErrorCodeUnavailable, "remove membership from %d", user)
		}
		res.Removed++
		rolesRemoved.Inc()
		logger.C(ctx).Debug().Uint64("user_id", uint64(user)).Msg("membership expired")
	}
	return res, nil
}

// pause blocks for one full RemovalDelay counted from the end of the previous removal
func (c *Coordinator) pause(ctx context.Context) error {
	if c.cfg.RemovalDelay <= 0 {
		return nil
	}
	gap := rate.NewLimiter(rate.Every(c.cfg.RemovalDelay), 1)
	gap.Allow()
	return gap.Wait(ctx)
}

func (c *Coordinator) notify(ctx context.Context, channel platform.ID, text string) {
	if channel == 0 {
		return
	}
	// notices still go out when the sweep deadline has passed
	if err := c.sink.SendText(context.WithoutCancel(ctx), channel, text); err != nil {
		logger.C(ctx).Warn().Err(err).Uint64("channel_id", uint64(channel)).Msg("sweep notice failed")
	}
}
