package service

import (
	"context"
	"sync"
	"time"

	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	dom "warden/internal/services/eviction/domain"
)

// Scheduler triggers sweeps for communities with an expiration interval
type Scheduler struct {
	configs dom.ConfigSource
	evict   dom.EvictorPort
	tick    time.Duration
	now     func() time.Time
	started time.Time

	mu   sync.Mutex
	last map[platform.ID]time.Time
	wg   sync.WaitGroup
}

var _ dom.SchedulerPort = (*Scheduler)(nil)

// NewScheduler returns a scheduler; the first sweep of a community happens one interval after construction
func NewScheduler(configs dom.ConfigSource, evict dom.EvictorPort, tick time.Duration, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if tick <= 0 {
		tick = time.Hour
	}
	return &Scheduler{
		configs: configs,
		evict:   evict,
		tick:    tick,
		now:     now,
		started: now(),
		last:    map[platform.ID]time.Time{},
	}
}

// Run checks for due sweeps every tick until ctx ends, then waits for sweeps it launched
func (s *Scheduler) Run(ctx context.Context) error {
	log := logger.Named("eviction-scheduler")
	log.Info().Dur("tick", s.tick).Msg("scheduler started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Launch(ctx); n > 0 {
				log.Info().Int("sweeps", n).Msg("scheduled sweeps launched")
			}
		}
	}
}

// Launch starts a sweep for every community that is due and returns how many it started
func (s *Scheduler) Launch(ctx context.Context) int {
	now := s.now()
	launched := 0
	for id, cfg := range s.configs.All() {
		interval := cfg.ExpirationInterval()
		if interval <= 0 {
			continue
		}

		s.mu.Lock()
		last, ok := s.last[id]
		if !ok {
			last = s.started
		}
		due := now.Sub(last) >= interval
		if due {
			s.last[id] = now
		} else if !ok {
			s.last[id] = last
		}
		s.mu.Unlock()
		if !due {
			continue
		}

		channel, _ := cfg.ReportChannel()
		req := dom.Request{Community: id, Config: cfg, Channel: channel, Trigger: dom.TriggerSchedule}
		launched++
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sweep(ctx, req, last)
		}()
	}
	return launched
}

// Wait blocks until launched sweeps return
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) sweep(ctx context.Context, req dom.Request, prev time.Time) {
	ctx = logger.WithCommunity(ctx, uint64(req.Community))
	res, err := s.evict.RunEviction(ctx, req)
	switch {
	case err != nil:
		logger.C(ctx).Warn().Err(err).Bool("transient", perr.Transient(err)).Msg("scheduled sweep failed")
	case res.Outcome == dom.OutcomeBusy:
		// try again next tick
		s.mu.Lock()
		s.last[req.Community] = prev
		s.mu.Unlock()
	}
}
