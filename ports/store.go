package ports

import (
	"context"
	"time"

	"github.com/layer-3/dapptober/core"
)

// Store interface for token invalidation
type Store interface {
	// InvalidateToken records tokenID as revoked for expiry. It reports false
	// when a live record already existed, so exactly one caller wins a rotation.
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) (bool, error)
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// NonceStore keeps at most one live nonce per address
type NonceStore interface {
	// Put stores nonce for its address, replacing any unconsumed one
	Put(ctx context.Context, nonce core.Nonce, ttl time.Duration) error
	// Get returns the live nonce or core.ErrExpiredOrMissingNonce
	Get(ctx context.Context, address string) (core.Nonce, error)
	// Consume deletes the nonce only if it still holds value.
	// It reports false when another caller consumed or replaced it first.
	Consume(ctx context.Context, address, value string) (bool, error)
}

// Sweeper is implemented by stores that need explicit expiry passes
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}
