package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/subcommands"

	"github.com/passari/web-ui/internal/config"
	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/heartbeat"
	"github.com/passari/web-ui/internal/observability"
	"github.com/passari/web-ui/internal/persistence"
)

type submitHeartbeatCommand struct {
	source string
}

var _ subcommands.Command = &submitHeartbeatCommand{}

func (*submitHeartbeatCommand) Name() string { return "submit-heartbeat" }

func (*submitHeartbeatCommand) Synopsis() string {
	return "record that an automated procedure has run"
}

func (*submitHeartbeatCommand) Usage() string {
	return `submit-heartbeat --source <source>:
  Store the current time as the latest heartbeat of the source. Known sources
  are sync_processed_sips, sync_objects, sync_attachments and sync_hashes.
`
}

func (c *submitHeartbeatCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "heartbeat source")
}

func (c *submitHeartbeatCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	source := domain.HeartbeatSource(c.source)
	if !isKnownSource(source) {
		fmt.Fprint(f.Output(), c.Usage())
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync() //nolint:errcheck

	redis, err := persistence.NewRedis(ctx, cfg.Redis, cfg.App.Name, logger)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer redis.Close()

	if err := heartbeat.NewRedisStore(redis.Client).Submit(ctx, source, time.Now()); err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func isKnownSource(source domain.HeartbeatSource) bool {
	for _, known := range domain.HeartbeatSources {
		if known == source {
			return true
		}
	}
	return false
}
