package service

import (
	"slices"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"warden/internal/core/platform"
	dom "warden/internal/services/eviction/domain"
)

// Registry tracks running sweeps. Holding a key is ownership of that community's sweep;
// the counter bounds how many communities sweep at once
type Registry struct {
	runs   *xsync.Map[platform.ID, dom.Run]
	active atomic.Int32
	cap    int32
}

// NewRegistry returns a registry allowing at most limit concurrent sweeps
func NewRegistry(limit int) *Registry {
	return &Registry{
		runs: xsync.NewMap[platform.ID, dom.Run](),
		cap:  int32(max(1, limit)),
	}
}

// Acquire tries to mark run as the running sweep of its community.
// It returns the run that holds the community and OutcomeStarted when run was installed,
// OutcomeBusy when the cap is reached, or OutcomeAlreadyRunning with the existing run
func (r *Registry) Acquire(run dom.Run) (dom.Run, dom.Outcome) {
	if r.active.Load() >= r.cap {
		return dom.Run{}, dom.OutcomeBusy
	}
	if existing, ok := r.runs.Load(run.Community); ok {
		return existing, dom.OutcomeAlreadyRunning
	}
	if r.active.Add(1) > r.cap {
		r.active.Add(-1)
		return dom.Run{}, dom.OutcomeBusy
	}
	if existing, loaded := r.runs.LoadOrStore(run.Community, run); loaded {
		r.active.Add(-1)
		return existing, dom.OutcomeAlreadyRunning
	}
	return run, dom.OutcomeStarted
}

// Release clears the marker of community if it still belongs to runID
func (r *Registry) Release(community platform.ID, runID string) {
	released := false
	r.runs.Compute(community, func(cur dom.Run, loaded bool) (dom.Run, xsync.ComputeOp) {
		if !loaded || cur.ID != runID {
			return cur, xsync.CancelOp
		}
		released = true
		return cur, xsync.DeleteOp
	})
	if released {
		r.active.Add(-1)
	}
}

// Lookup returns the running sweep of community
func (r *Registry) Lookup(community platform.ID) (dom.Run, bool) {
	return r.runs.Load(community)
}

// Running is the number of sweeps holding a slot
func (r *Registry) Running() int { return int(r.active.Load()) }

// Cap is the concurrent sweep limit
func (r *Registry) Cap() int { return int(r.cap) }

// Active lists running sweeps, oldest first
func (r *Registry) Active() []dom.Run {
	out := make([]dom.Run, 0, r.runs.Size())
	r.runs.Range(func(_ platform.ID, run dom.Run) bool {
		out = append(out, run)
		return true
	})
	slices.SortFunc(out, func(a, b dom.Run) int { return a.Started.Compare(b.Started) })
	return out
}
