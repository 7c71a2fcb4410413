package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/servicedesk/ticket-service/internal/api/http"
	"github.com/servicedesk/ticket-service/internal/api/http/handlers"
	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/config"
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/internal/observability"
	"github.com/servicedesk/ticket-service/internal/persistence"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/internal/repository/memory"
	"github.com/servicedesk/ticket-service/internal/service"
	"github.com/servicedesk/ticket-service/internal/storage"
	"github.com/servicedesk/ticket-service/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	var store repository.Store
	storeName := "memory"
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
		storeName = "postgres"
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.NewDiskBlobStore(cfg.Evidence.Root)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics("servicedesk")
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher,
		service.NewNotificationService(dispatcher, logger, cfg.Notification),
		redis, cfg.Redis.EventsChannel)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.AccessTokenTTLMinutes)
	enforcer, err := auth.NewEnforcer(logger)
	if err != nil {
		return err
	}

	slaService := service.NewSLAService(store, logger, nil)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		SLA:        slaService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	evidenceService := service.NewEvidenceService(service.EvidenceDependencies{
		Store:      store,
		Blobs:      blobs,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	exportService := service.NewExportService(ticketService, cfg.App.ExportMaxRows, logger)
	userService := service.NewUserService(store, cfg.Auth.BcryptCost, logger, nil)
	authService := service.NewAuthService(store, tokens, logger)

	created, err := userService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("username", cfg.Auth.BootstrapUsername))
	}

	sweeper := worker.NewEvidenceSweeper(evidenceService, cfg.Evidence.SweepGrace(), logger)
	if err := sweeper.Start(cfg.Evidence.SweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Evidence.MaxUploadBytes,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins(),
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, storeName, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Tickets:        handlers.NewTicketsHandler(ticketService, exportService),
		Evidence:       handlers.NewEvidenceHandler(evidenceService),
		Users:          handlers.NewUsersHandler(authService, userService),
		SLA:            handlers.NewSLAHandler(slaService),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Enforcer:       enforcer,
		Swagger:        cfg.App.Env != "production",
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", storeName))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(shutdownTimeout)
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
