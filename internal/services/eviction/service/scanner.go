package service

import (
	"context"
	"time"

	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	dom "warden/internal/services/eviction/domain"
)

// AuditPageSize is how many entries each audit page asks for
const AuditPageSize = 256

// Scanner walks a community's role-change audit trail backwards from now
type Scanner struct {
	audit    platform.AuditTrailClient
	pageSize int
	now      func() time.Time
}

// NewScanner returns a scanner over audit; now may be nil
func NewScanner(audit platform.AuditTrailClient, now func() time.Time) *Scanner {
	if now == nil {
		now = time.Now
	}
	return &Scanner{audit: audit, pageSize: AuditPageSize, now: now}
}

// CollectRecentGrantees returns every user that was given role within window of now.
// Only additions count. The walk stops once the oldest entry seen predates the window,
// on an empty page, or when a page does not move the cursor
func (s *Scanner) CollectRecentGrantees(ctx context.Context, community, role platform.ID, window time.Duration) (dom.Grantees, error) {
	log := logger.C(ctx).With().Str("component", "audit-scanner").Logger()

	now := s.now()
	oldest := now
	var before platform.ID
	out := dom.Grantees{}

	for pages := 1; ; pages++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := s.audit.FetchAuditPage(ctx, community, before, s.pageSize, platform.AuditMemberRoleUpdate)
		if err != nil {
			auditPagesFetched.WithLabelValues("error").Inc()
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "fetch audit page %d", pages)
		}
		auditPagesFetched.WithLabelValues("ok").Inc()
		if len(entries) == 0 {
			log.Debug().Int("pages", pages).Msg("audit trail exhausted")
			break
		}

		cursor := before
		for _, e := range entries {
			if e.CreatedAt.Before(oldest) {
				oldest = e.CreatedAt
				cursor = e.ID
			}
			if e.Kind != platform.AuditMemberRoleUpdate || now.Sub(e.CreatedAt) >= window {
				continue
			}
			if e.Adds(role) {
				out[e.Target] = struct{}{}
			}
		}

		if now.Sub(oldest) >= window {
			break
		}
		if cursor == before {
			log.Warn().Int("pages", pages).Uint64("cursor", uint64(cursor)).Msg("audit cursor did not advance, stopping walk")
			break
		}
		before = cursor
	}

	log.Debug().Int("grantees", len(out)).Time("oldest", oldest).Msg("audit scan done")
	return out, nil
}
