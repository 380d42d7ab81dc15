package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	httptransport "github.com/passari/web-ui/internal/api/http"
	"github.com/passari/web-ui/internal/api/http/handlers"
	"github.com/passari/web-ui/internal/auth"
	"github.com/passari/web-ui/internal/cache"
	"github.com/passari/web-ui/internal/events"
	"github.com/passari/web-ui/internal/heartbeat"
	"github.com/passari/web-ui/internal/logfiles"
	"github.com/passari/web-ui/internal/observability"
	"github.com/passari/web-ui/internal/persistence"
	"github.com/passari/web-ui/internal/queue"
	"github.com/passari/web-ui/internal/repository"
	"github.com/passari/web-ui/internal/service"
	"github.com/passari/web-ui/internal/worker"
	"github.com/passari/web-ui/internal/workflow"
)

type serveCommand struct{}

var _ subcommands.Command = &serveCommand{}

func (*serveCommand) Name() string { return "serve" }

func (*serveCommand) Synopsis() string { return "run the web UI" }

func (*serveCommand) Usage() string {
	return `serve:
  Run the web UI HTTP server until interrupted.
`
}

func (*serveCommand) SetFlags(*flag.FlagSet) {}

func (*serveCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime(ctx)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer rt.Close()

	cfg := rt.cfg
	logger := rt.logger

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, rt.postgres.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return subcommands.ExitFailure
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, cfg.App.Name, logger)
	if err != nil {
		logger.Error("failed to create redis client", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer redis.Close()

	pool := rt.postgres.PoolHandle()
	objectRepo := repository.NewObjectRepository(pool)
	packageRepo := repository.NewPackageRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	queues := queue.NewRedisBackend(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()
	auditWorker := worker.StartAuditWorker(dispatcher, service.NewAuditService(dispatcher, logger), logger)
	defer auditWorker.Stop()

	workflowClient := workflow.NewClient(workflow.Dependencies{
		DB:          pool,
		Objects:     objectRepo,
		Packages:    packageRepo,
		Queues:      queues,
		ObjectsInTx: repository.NewObjectRepositoryWith,
		Logger:      logger.Named("workflow"),
	})

	statsService := service.NewStatsService(objectRepo, queues, cache.New(redis.Client, logger))
	objectService := service.NewObjectService(service.ObjectDependencies{
		ObjectRepo: objectRepo,
		Workflow:   workflowClient,
		Stats:      statsService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	packageService := service.NewPackageService(packageRepo, queues, logfiles.NewOsReader(cfg.Workflow.PackageDir))
	statusService := service.NewSystemStatusService(heartbeat.NewRedisStore(redis.Client), cfg.Heartbeat)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.App.RequestTimeout(),
		CSRFEnabled:  cfg.Auth.CSRFEnabled,
		CookieSecure: cfg.Auth.CookieSecure,
		CookieKey:    cfg.Auth.CookieEncryptionKey(),
	})

	views := handlers.NewPageRenderer(statusService, cfg.App.MuseumPlusURL, authService.Registerable(), logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, statusService, metrics,
			handlers.Dependency{Name: "postgres", Pinger: rt.postgres},
			handlers.Dependency{Name: "redis", Pinger: redis}),
		Stats:          handlers.NewStatsHandler(statsService),
		Objects:        handlers.NewObjectsHandler(objectService),
		SIPs:           handlers.NewSIPsHandler(packageService),
		Pages:          handlers.NewPagesHandler(views, objectService, packageService),
		Forms:          handlers.NewFormsHandler(views, objectService),
		Session:        handlers.NewSessionHandler(views, authService, cfg.Auth.CookieSecure),
		AuthMiddleware: authMiddleware,
		RequiredRole:   cfg.Auth.RequiredRole,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		logger.Error("fiber listen", zap.Error(err))
		return subcommands.ExitFailure
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return subcommands.ExitSuccess
}
