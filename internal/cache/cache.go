// Package cache is a small read-through JSON cache on top of Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON encoded values in Redis with a TTL.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a cache.
func New(client *redis.Client, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, logger: logger}
}

// GetOrCompute returns the cached value under key, or computes, stores and
// returns it. Redis failures are logged and treated as a miss so the
// caller still gets a fresh value. Concurrent misses all recompute.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var value T
		jsonErr := json.Unmarshal(raw, &value)
		if jsonErr == nil {
			return value, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(jsonErr))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
