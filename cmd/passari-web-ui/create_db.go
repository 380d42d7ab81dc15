package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/persistence"
)

type createDBCommand struct{}

var _ subcommands.Command = &createDBCommand{}

func (*createDBCommand) Name() string { return "create-db" }

func (*createDBCommand) Synopsis() string {
	return "create the user and role tables of the web UI"
}

func (*createDBCommand) Usage() string {
	return `create-db:
  Create the tables used for web UI authentication. The workflow tables are
  not touched.
`
}

func (*createDBCommand) SetFlags(*flag.FlagSet) {}

func (*createDBCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime(ctx)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer rt.Close()

	if err := persistence.RunMigrations(ctx, rt.postgres.PoolHandle(), rt.logger); err != nil {
		rt.logger.Error("failed to create tables", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
