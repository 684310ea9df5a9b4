package dapptober

import (
	"context"
	"strings"
	"sync"
)

// MemoryCache implements SessionCache with an in-process map
type MemoryCache struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions: make(map[string]*Session),
	}
}

func (c *MemoryCache) Get(ctx context.Context, address string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[strings.ToLower(address)]
	if !ok {
		return nil, ErrNoSession
	}
	return session, nil
}

func (c *MemoryCache) Set(ctx context.Context, session *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[strings.ToLower(session.WalletAddress)] = session
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, strings.ToLower(address))
	return nil
}

// Clear removes every cached session
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions = make(map[string]*Session)
}
