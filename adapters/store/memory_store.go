// Package store keeps nonces and revoked token IDs, in process or in Redis.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/dapptober/ports"
)

var (
	_ ports.Store   = (*MemoryStore)(nil)
	_ ports.Sweeper = (*MemoryStore)(nil)
)

// MemoryStore remembers revoked refresh token IDs until they would have expired anyway.
// Entries are never evicted on read; Sweep removes them.
type MemoryStore struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// WithClock replaces the time source
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// InvalidateToken revokes tokenID for ttl. An existing longer revocation wins.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	now := s.now()
	until := now.Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.revoked[tokenID]
	live := ok && now.Before(current)
	if !live || until.After(current) {
		s.revoked[tokenID] = until
	}
	return !live, nil
}

func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.revoked[tokenID]
	s.mu.RUnlock()

	return ok && s.now().Before(until), nil
}

// Sweep drops revocations that lapsed before olderThan
func (s *MemoryStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, until := range s.revoked {
		if until.Before(olderThan) {
			delete(s.revoked, id)
			removed++
		}
	}
	return removed, nil
}
