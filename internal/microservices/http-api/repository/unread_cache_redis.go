package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache keeps each user's unread count so the badge endpoint does not
// hit the database on every poll.
type UnreadCache interface {
	Get(ctx context.Context, userID string) (count int64, ok bool, err error)
	// Set stores the count for the configured TTL, or for maxAge when that
	// is positive and shorter.
	Set(ctx context.Context, userID string, count int64, maxAge time.Duration) error
	Invalidate(ctx context.Context, userIDs ...string) error
}

const unreadKeyPrefix = "inbox:unread:"

// invalidateChunk bounds the number of keys per DEL so a send_to_all does not
// build one giant command.
const invalidateChunk = 500

type redisUnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUnreadCache returns a Redis backed cache. A nil client or a
// non-positive TTL yields a cache that never hits.
func NewRedisUnreadCache(client *redis.Client, ttl time.Duration) UnreadCache {
	if client == nil || ttl <= 0 {
		return NoopUnreadCache{}
	}
	return &redisUnreadCache{client: client, ttl: ttl}
}

func unreadKey(userID string) string {
	return unreadKeyPrefix + userID
}

func (c *redisUnreadCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	count, err := c.client.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	return count, true, nil
}

func (c *redisUnreadCache) Set(ctx context.Context, userID string, count int64, maxAge time.Duration) error {
	ttl := c.ttl
	if maxAge > 0 && maxAge < ttl {
		ttl = maxAge
	}
	return c.client.Set(ctx, unreadKey(userID), count, ttl).Err()
}

func (c *redisUnreadCache) Invalidate(ctx context.Context, userIDs ...string) error {
	for start := 0; start < len(userIDs); start += invalidateChunk {
		end := min(start+invalidateChunk, len(userIDs))
		keys := make([]string, 0, end-start)
		for _, id := range userIDs[start:end] {
			keys = append(keys, unreadKey(id))
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("invalidate unread counts: %w", err)
		}
	}
	return nil
}

// NoopUnreadCache is used when Redis is not configured.
type NoopUnreadCache struct{}

func (NoopUnreadCache) Get(context.Context, string) (int64, bool, error)        { return 0, false, nil }
func (NoopUnreadCache) Set(context.Context, string, int64, time.Duration) error { return nil }
func (NoopUnreadCache) Invalidate(context.Context, ...string) error             { return nil }
