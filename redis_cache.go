package dapptober

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "dapptober:client:session:"

// RedisCache implements SessionCache in Redis so several client processes
// acting for the same wallets share sessions
type RedisCache struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisCache creates a new RedisCache
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		now:    time.Now,
	}
}

func (c *RedisCache) key(address string) string {
	return redisSessionPrefix + strings.ToLower(address)
}

func (c *RedisCache) Get(ctx context.Context, address string) (*Session, error) {
	payload, err := c.client.Get(ctx, c.key(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Set stores session until its refresh token expires, so an expired access
// token can still be refreshed without a signature
func (c *RedisCache) Set(ctx context.Context, session *Session) error {
	ttl := session.retainUntil().Sub(c.now())
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.client.Set(ctx, c.key(session.WalletAddress), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, c.key(address)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
