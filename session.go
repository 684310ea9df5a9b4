package dapptober

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/dapptober/core"
	"golang.org/x/sync/singleflight"
)

// SessionGuard deduplicates sign-ins. Concurrent SignIn calls for the same
// address share one nonce, one signature prompt and one session.
type SessionGuard struct {
	api     API
	cache   SessionCache
	flights singleflight.Group
	now     func() time.Time
}

// NewSessionGuard creates a guard over api. A nil cache uses a MemoryCache.
func NewSessionGuard(api API, cache SessionCache) *SessionGuard {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &SessionGuard{
		api:   api,
		cache: cache,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for session expiry
func (g *SessionGuard) WithClock(now func() time.Time) *SessionGuard {
	g.now = now
	return g
}

// SignIn returns a live session for the wallet's address. An expired access
// token is refreshed silently; the wallet is asked to sign only when there is
// no session or the server rejects its refresh token. Cancelling ctx (for example on wallet disconnect) abandons the wait only; an
// in-flight sign-in still completes and is cached for the next caller.
func (g *SessionGuard) SignIn(ctx context.Context, wallet Wallet) (*Session, error) {
	if wallet == nil {
		return nil, ErrNoWallet
	}
	address, err := core.NormalizeAddress(wallet.Address())
	if err != nil {
		return nil, err
	}

	if session, ok := g.cached(ctx, address); ok {
		return session, nil
	}

	ch := g.flights.DoChan(address, func() (any, error) {
		return g.signIn(context.WithoutCancel(ctx), wallet, address)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Session returns the cached live session for address
func (g *SessionGuard) Session(ctx context.Context, address string) (*Session, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if session, ok := g.cached(ctx, address); ok {
		return session, nil
	}
	return nil, ErrNoSession
}

// SignOut logs the cached session out and drops it. The cache entry is
// removed even when the server call fails.
func (g *SessionGuard) SignOut(ctx context.Context, address string) error {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return err
	}

	session, err := g.cache.Get(ctx, address)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	logoutErr := g.api.Logout(ctx, session.RefreshToken)
	if err := g.cache.Delete(ctx, address); err != nil {
		return err
	}
	return logoutErr
}

func (g *SessionGuard) lookup(ctx context.Context, address string) *Session {
	session, err := g.cache.Get(ctx, address)
	if err != nil || session.WalletAddress != address {
		return nil
	}
	return session
}

func (g *SessionGuard) cached(ctx context.Context, address string) (*Session, bool) {
	session := g.lookup(ctx, address)
	if !session.Valid(g.now()) {
		return nil, false
	}
	return session, true
}

func (g *SessionGuard) signIn(ctx context.Context, wallet Wallet, address string) (*Session, error) {
	// A flight that finished between our cache miss and DoChan already stored a session
	current := g.lookup(ctx, address)
	now := g.now()
	if current.Valid(now) {
		return current, nil
	}

	if current.Refreshable(now) {
		session, err := g.refresh(ctx, current)
		if err == nil {
			return session, nil
		}
		if !refreshRejected(err) {
			return nil, err
		}
		// The refresh token is dead; only a new signature helps
		_ = g.cache.Delete(ctx, address)
	}

	nonce, err := g.api.RequestNonce(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to request nonce: %w", err)
	}

	signature, err := wallet.SignMessage(ctx, nonce.Message)
	if err != nil {
		return nil, fmt.Errorf("wallet declined to sign: %w", err)
	}

	session, err := g.api.Verify(ctx, address, hexutil.Encode(signature), nonce.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to verify signature: %w", err)
	}

	if err := g.cache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}
	return session, nil
}

func (g *SessionGuard) refresh(ctx context.Context, current *Session) (*Session, error) {
	session, err := g.api.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	if session.WalletAddress == "" {
		session.WalletAddress = current.WalletAddress
	}

	if err := g.cache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}
	return session, nil
}

// refreshRejected reports whether the server refused the refresh token itself:
// 401 for expired or revoked, 400 for a token it cannot parse
func refreshRejected(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrBadRequest)
}
