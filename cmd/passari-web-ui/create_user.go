package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/repository"
	"github.com/passari/web-ui/internal/service"
)

type createUserCommand struct {
	email    string
	password string
	roles    string
}

var _ subcommands.Command = &createUserCommand{}

func (*createUserCommand) Name() string { return "create-user" }

func (*createUserCommand) Synopsis() string { return "create a web UI user" }

func (*createUserCommand) Usage() string {
	return `create-user --email <email> --password <password> [--role <role>[,<role>...]]:
  Create an active user. Roles that don't exist yet are created.
`
}

func (c *createUserCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "email address used to log in")
	f.StringVar(&c.password, "password", "", "password, at least 8 characters")
	f.StringVar(&c.roles, "role", "", "comma separated role names")
}

func (c *createUserCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fmt.Fprint(f.Output(), c.Usage())
		return subcommands.ExitUsageError
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer rt.Close()

	users := repository.NewUserRepository(rt.postgres.PoolHandle())
	authService := service.NewAuthService(rt.cfg.Auth, service.AuthDependencies{
		UserRepo: users,
		Logger:   rt.logger,
	})

	user, err := authService.CreateUser(ctx, c.email, c.password, strings.Split(c.roles, ",")...)
	if err != nil {
		rt.logger.Error("failed to create user", zap.Error(err))
		return subcommands.ExitFailure
	}
	rt.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Strings("roles", user.RoleNames()))
	return subcommands.ExitSuccess
}
