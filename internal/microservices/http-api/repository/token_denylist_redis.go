package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist remembers access token ids revoked by logout until the
// tokens would have expired anyway.
type TokenDenylist interface {
	Deny(ctx context.Context, jti string, ttl time.Duration) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

const denylistKeyPrefix = "auth:denylist:"

type redisTokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist picks the Redis implementation when a client is given and
// falls back to process memory otherwise.
func NewTokenDenylist(client *redis.Client) TokenDenylist {
	if client == nil {
		return NewMemoryTokenDenylist()
	}
	return &redisTokenDenylist{client: client}
}

func (d *redisTokenDenylist) Deny(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistKeyPrefix+jti, 1, ttl).Err()
}

func (d *redisTokenDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// memoryTokenDenylist serves single-instance deployments without Redis.
type memoryTokenDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryTokenDenylist() TokenDenylist {
	return &memoryTokenDenylist{entries: make(map[string]time.Time), now: time.Now}
}

func (d *memoryTokenDenylist) Deny(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, k)
		}
	}
	d.entries[jti] = now.Add(ttl)
	return nil
}

func (d *memoryTokenDenylist) IsDenied(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if !exp.After(d.now()) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}
