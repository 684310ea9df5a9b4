package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
)

var (
	_ ports.NonceStore = (*MemoryNonceStore)(nil)
	_ ports.Sweeper    = (*MemoryNonceStore)(nil)
)

type nonceEntry struct {
	nonce     core.Nonce
	expiresAt time.Time
}

// MemoryNonceStore keeps nonces in a process-local map. Entries are lost on restart.
type MemoryNonceStore struct {
	nonces map[string]nonceEntry
	mu     sync.Mutex
}

// NewMemoryNonceStore creates a new in-memory nonce store
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[string]nonceEntry),
	}
}

// Put stores the nonce, replacing any previous one for the address
func (s *MemoryNonceStore) Put(ctx context.Context, nonce core.Nonce, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[nonce.Address] = nonceEntry{
		nonce:     nonce,
		expiresAt: nonce.IssuedAt.Add(ttl),
	}
	return nil
}

// Get returns the nonce currently stored for address
func (s *MemoryNonceStore) Get(ctx context.Context, address string) (core.Nonce, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nonces[address]
	if !ok {
		return core.Nonce{}, core.ErrExpiredOrMissingNonce
	}
	return entry.nonce, nil
}

// Consume deletes the nonce for address if it still equals value
func (s *MemoryNonceStore) Consume(ctx context.Context, address, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nonces[address]
	if !ok || entry.nonce.Value != value {
		return false, nil
	}
	delete(s.nonces, address)
	return true, nil
}

// Sweep removes nonces that expired before olderThan
func (s *MemoryNonceStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for address, entry := range s.nonces {
		if entry.expiresAt.Before(olderThan) {
			delete(s.nonces, address)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored nonces
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nonces)
}
