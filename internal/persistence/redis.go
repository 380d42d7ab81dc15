package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/config"
)

const redisPingTimeout = 3 * time.Second

// Redis wraps the go-redis client shared by the stats cache, the queue
// backend and the heartbeat store. The server is the one the workflow
// workers use, so the UI only ever touches the rq:* keys and its own
// cache and heartbeat keys.
type Redis struct {
	Client *redis.Client
}

// NewRedis creates the client. An unreachable server is only logged: pages
// still render, and every call that needs Redis reports its own error.
func NewRedis(ctx context.Context, cfg config.RedisConfig, clientName string, logger *zap.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("REDIS_ADDR not provided")
	}

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: clientName,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{Client: client}, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
