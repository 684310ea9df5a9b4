package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/layer-3/dapptober/core"
	"github.com/layer-3/dapptober/ports"
	"github.com/redis/go-redis/v9"
)

var (
	_ ports.Store      = (*RedisStore)(nil)
	_ ports.NonceStore = (*RedisNonceStore)(nil)
)

// RedisStore is a Redis implementation of the Store interface
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "dapptober:invalidated:",
	}
}

// InvalidateToken marks a token as invalidated in Redis with SETNX
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) (bool, error) {
	// A zero expiry would make the key permanent
	if expiry < time.Second {
		expiry = time.Second
	}

	created, err := s.client.SetNX(ctx, s.prefix+tokenID, "1", expiry).Result()
	if err != nil {
		return false, fmt.Errorf("failed to invalidate token: %v: %w", err, core.ErrBackendUnavailable)
	}
	return created, nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + tokenID

	// Check if key exists
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %v: %w", err, core.ErrBackendUnavailable)
	}

	return val > 0, nil
}

// consumeScript deletes the nonce hash only while it still holds the expected value
var consumeScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "nonce") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisNonceStore keeps nonces in Redis hashes with a key TTL, so any instance can verify them
type RedisNonceStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store
func NewRedisNonceStore(client redis.UniversalClient) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "dapptober:nonce:",
	}
}

// Put replaces the nonce for the address and sets its TTL
func (s *RedisNonceStore) Put(ctx context.Context, nonce core.Nonce, ttl time.Duration) error {
	key := s.prefix + nonce.Address

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "nonce", nonce.Value, "issued_at", nonce.IssuedAt.UnixNano())
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store nonce: %v: %w", err, core.ErrBackendUnavailable)
	}
	return nil
}

// Get returns the live nonce for address
func (s *RedisNonceStore) Get(ctx context.Context, address string) (core.Nonce, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+address).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Nonce{}, core.ErrExpiredOrMissingNonce
		}
		return core.Nonce{}, fmt.Errorf("failed to load nonce: %v: %w", err, core.ErrBackendUnavailable)
	}

	value, ok := fields["nonce"]
	if !ok || value == "" {
		return core.Nonce{}, core.ErrExpiredOrMissingNonce
	}

	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return core.Nonce{}, core.ErrExpiredOrMissingNonce
	}

	return core.Nonce{
		Address:  address,
		Value:    value,
		IssuedAt: time.Unix(0, issuedAt),
	}, nil
}

// Consume atomically deletes the nonce if it still matches value
func (s *RedisNonceStore) Consume(ctx context.Context, address, value string) (bool, error) {
	deleted, err := consumeScript.Run(ctx, s.client, []string{s.prefix + address}, value).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %v: %w", err, core.ErrBackendUnavailable)
	}
	return deleted == 1, nil
}
