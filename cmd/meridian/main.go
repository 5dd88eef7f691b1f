package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-dist/meridian/internal/app"
	"github.com/meridian-dist/meridian/internal/auth"
	"github.com/meridian-dist/meridian/internal/catalog"
	"github.com/meridian-dist/meridian/internal/dashboard"
	"github.com/meridian-dist/meridian/internal/leads"
	"github.com/meridian-dist/meridian/internal/ledger"
	"github.com/meridian-dist/meridian/internal/notify"
	"github.com/meridian-dist/meridian/internal/orders"
	"github.com/meridian-dist/meridian/internal/platform/cache"
	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/rbac"
	"github.com/meridian-dist/meridian/internal/regions"
	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/users"
	"github.com/meridian-dist/meridian/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	broker := notify.NewBroker(redisClient, logger)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	authService := auth.NewService(usersService)
	authHandler := auth.NewHandler(logger, authService, sessionManager, rbacMiddleware)

	regionsRepo := regions.NewRepository(dbpool)
	regionsService := regions.NewService(regionsRepo)
	regionsHandler := regions.NewHandler(logger, regionsService, rbacMiddleware)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, idempotencyStore, broker)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, rbacMiddleware)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, catalogService, auditLogger, broker, jobClient)
	ordersHandler := orders.NewHandler(logger, ordersService, rbacMiddleware)

	leadsRepo := leads.NewRepository(dbpool)
	leadsService := leads.NewService(leadsRepo, ordersService, auditLogger, broker)
	leadsHandler := leads.NewHandler(logger, leadsService, rbacMiddleware)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	notifyHandler := notify.NewHandler(logger, broker, rbacMiddleware)

	// Change signals invalidate the dashboard cache until shutdown.
	signals, err := broker.Subscribe(ctx)
	if err != nil {
		logger.Warn("subscribe change signals", slog.Any("error", err))
	} else {
		go dashboardService.WatchChanges(ctx, signals)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		Pool:             dbpool,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		RegionsHandler:   regionsHandler,
		CatalogHandler:   catalogHandler,
		LedgerHandler:    ledgerHandler,
		OrdersHandler:    ordersHandler,
		LeadsHandler:     leadsHandler,
		DashboardHandler: dashboardHandler,
		NotifyHandler:    notifyHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
