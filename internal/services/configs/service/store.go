// Package service implements the community config store and the admin upload flow
package service

import (
	"github.com/puzpuzpuz/xsync/v4"

	"warden/internal/core/platform"
	dom "warden/internal/services/configs/domain"
)

// Store is the concurrent in-memory community config map
type Store struct {
	m *xsync.Map[platform.ID, dom.CommunityConfig]
}

var _ dom.StorePort = (*Store)(nil)

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{m: xsync.NewMap[platform.ID, dom.CommunityConfig]()}
}

// Seed bulk-loads configs, typically from disk at startup; existing entries win
func (s *Store) Seed(all map[platform.ID]dom.CommunityConfig) int {
	n := 0
	for id, c := range all {
		if s.TryAdd(id, c) {
			n++
		}
	}
	return n
}

// Get returns a copy of the stored config
func (s *Store) Get(community platform.ID) (dom.CommunityConfig, bool) {
	c, ok := s.m.Load(community)
	if !ok {
		return dom.CommunityConfig{}, false
	}
	return c.Clone(), true
}

// TryAdd stores cfg only when community has no entry yet
func (s *Store) TryAdd(community platform.ID, cfg dom.CommunityConfig) bool {
	_, loaded := s.m.LoadOrStore(community, cfg.Clone())
	return !loaded
}

// Replace swaps in next when the community exists and accept(next, current) holds.
// The check and the swap happen atomically with respect to other writers of the same key
func (s *Store) Replace(community platform.ID, next dom.CommunityConfig, accept dom.Validator) bool {
	next = next.Clone()
	replaced := false
	s.m.Compute(community, func(prev dom.CommunityConfig, loaded bool) (dom.CommunityConfig, xsync.ComputeOp) {
		if !loaded || (accept != nil && !accept(next, prev)) {
			return prev, xsync.CancelOp
		}
		replaced = true
		return next, xsync.UpdateOp
	})
	return replaced
}

// All returns a snapshot copy of every config
func (s *Store) All() map[platform.ID]dom.CommunityConfig {
	out := make(map[platform.ID]dom.CommunityConfig, s.m.Size())
	s.m.Range(func(id platform.ID, c dom.CommunityConfig) bool {
		out[id] = c.Clone()
		return true
	})
	return out
}

// Len is the number of configured communities
func (s *Store) Len() int { return s.m.Size() }
