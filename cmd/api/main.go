package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/soportehq/helpdesk/internal/api/http"
	"github.com/soportehq/helpdesk/internal/api/http/handlers"
	"github.com/soportehq/helpdesk/internal/auth"
	"github.com/soportehq/helpdesk/internal/config"
	"github.com/soportehq/helpdesk/internal/events"
	"github.com/soportehq/helpdesk/internal/observability"
	"github.com/soportehq/helpdesk/internal/persistence"
	"github.com/soportehq/helpdesk/internal/repository"
	"github.com/soportehq/helpdesk/internal/repository/memory"
	"github.com/soportehq/helpdesk/internal/service"
	"github.com/soportehq/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Warn("running with in-memory store; data is not persisted")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(cfg.App.Name)
	dispatcher := events.NewInMemoryDispatcher()

	activityService := service.NewActivityService(store, logger, metrics)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Activity:   activityService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	conversationService := service.NewConversationService(store, activityService, dispatcher)
	userService := service.NewUserService(store, activityService, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userService, tokens, cfg.Auth)
	webhookService := service.NewWebhookService(ticketService, redis, cfg.Webhook.DedupTTL(), logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(tokens, store.Users())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, conversationService),
		Users:          handlers.NewUsersHandler(userService, cfg.Auth.BcryptCost),
		Activity:       handlers.NewActivityHandler(activityService),
		Webhooks:       handlers.NewWebhookHandler(webhookService, cfg.Webhook.APIKey),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
