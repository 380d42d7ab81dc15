// Package heartbeat reads and records the liveness timestamps of the
// workflow's periodic procedures.
package heartbeat

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/passari/web-ui/internal/domain"
)

// Key is the Redis key holding the last heartbeat of source as unix seconds.
func Key(source domain.HeartbeatSource) string {
	return "heartbeat:" + string(source)
}

// Store reads and writes heartbeats.
type Store interface {
	Get(ctx context.Context) (domain.Heartbeats, error)
	Submit(ctx context.Context, source domain.HeartbeatSource, at time.Time) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Store backed by Redis.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

// Get returns the last heartbeat of every known source. Sources that never
// reported map to nil.
func (s *redisStore) Get(ctx context.Context) (domain.Heartbeats, error) {
	keys := make([]string, 0, len(domain.HeartbeatSources))
	for _, source := range domain.HeartbeatSources {
		keys = append(keys, Key(source))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read heartbeats: %w", err)
	}

	result := make(domain.Heartbeats, len(domain.HeartbeatSources))
	for i, source := range domain.HeartbeatSources {
		result[source] = parseTimestamp(values[i])
	}
	return result, nil
}

func (s *redisStore) Submit(ctx context.Context, source domain.HeartbeatSource, at time.Time) error {
	return s.client.Set(ctx, Key(source), strconv.FormatInt(at.Unix(), 10), 0).Err()
}

func parseTimestamp(value any) *time.Time {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	ts := time.Unix(int64(secs), 0).UTC()
	return &ts
}
