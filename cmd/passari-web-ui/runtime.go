package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/config"
	"github.com/passari/web-ui/internal/observability"
	"github.com/passari/web-ui/internal/persistence"
)

// runtime holds what every subcommand needs.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	postgres *persistence.Postgres
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, postgres: pg}, nil
}

func (r *runtime) Close() {
	r.postgres.Close()
	_ = r.logger.Sync()
}
