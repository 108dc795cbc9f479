package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harbor-erp/harbor-erp/internal/app"
	"github.com/harbor-erp/harbor-erp/internal/catalog"
	"github.com/harbor-erp/harbor-erp/internal/fulfillment"
	"github.com/harbor-erp/harbor-erp/internal/observability"
	"github.com/harbor-erp/harbor-erp/internal/platform/cache"
	"github.com/harbor-erp/harbor-erp/internal/platform/db"
	"github.com/harbor-erp/harbor-erp/internal/receiving"
	"github.com/harbor-erp/harbor-erp/internal/shared"
	"github.com/harbor-erp/harbor-erp/jobs"
)

func allocationPolicy(cfg *app.Config) fulfillment.AllocationPolicy {
	if cfg != nil && cfg.AllocationPolicy == "partial" {
		return fulfillment.AllocationPartial
	}
	return fulfillment.AllocationStrict
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

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

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	fulfillmentRepo := fulfillment.NewRepository(dbpool)
	fulfillmentService := fulfillment.NewService(fulfillmentRepo, auditLogger, metrics, fulfillment.ServiceConfig{
		Policy:     allocationPolicy(cfg),
		MaxRetries: cfg.CompleteRetries,
	})
	availability := fulfillment.NewAvailabilityCache(
		fulfillment.NewAvailabilityCalculator(fulfillmentRepo),
		redisClient,
		cfg.StockCacheTTL,
		logger,
	)
	fulfillmentHandler := fulfillment.NewHandler(logger, fulfillmentService, availability)

	receivingRepo := receiving.NewRepository(dbpool)
	receivingService := receiving.NewService(receivingRepo, auditLogger, idempotencyStore)
	receivingHandler := receiving.NewHandler(logger, receivingService)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, availability)
	catalogHandler := catalog.NewHandler(catalogService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		FulfillmentHandler: fulfillmentHandler,
		ReceivingHandler:   receivingHandler,
		CatalogHandler:     catalogHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
