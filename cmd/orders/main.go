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

	"github.com/odyssey-erp/odyssey-orders/internal/api"
	"github.com/odyssey-erp/odyssey-orders/internal/app"
	"github.com/odyssey-erp/odyssey-orders/internal/branding"
	"github.com/odyssey-erp/odyssey-orders/internal/bulk"
	"github.com/odyssey-erp/odyssey-orders/internal/events"
	"github.com/odyssey-erp/odyssey-orders/internal/observability"
	"github.com/odyssey-erp/odyssey-orders/internal/orders"
	"github.com/odyssey-erp/odyssey-orders/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-orders/internal/platform/db"
	"github.com/odyssey-erp/odyssey-orders/internal/rbac"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
	"github.com/odyssey-erp/odyssey-orders/jobs"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

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

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName: "orders-api",
		Version:     version,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
	})
	if err != nil {
		logger.Warn("tracing disabled", slog.Any("error", err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	dbpool, err := db.New(ctx, db.PoolConfig{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionStore(redisClient, cfg.SessionTTL)
	policy := rbac.NewPolicy()
	rbacMiddleware := &rbac.Middleware{Policy: policy, Logger: logger}
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	metrics := observability.NewMetrics()
	errorSink := observability.NewErrorSink(metrics, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	deps := orders.Dependencies{
		Store:      orders.NewRepository(dbpool),
		Authorizer: policy,
		Audit:      auditLogger,
		Errors:     errorSink,
		Automation: jobClient,
		Logger:     logger,
	}
	if cfg.KafkaEnabled() {
		publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			Producer: "orders-api",
		}, logger)
		if err != nil {
			logger.Error("init kafka publisher", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("kafka publisher close", slog.Any("error", err))
			}
		}()
		deps.Events = publisher
	}

	orderService := orders.NewService(deps, orders.ServiceConfig{
		NumberPrefix: cfg.OrderNumberPrefix,
		NumberBase:   cfg.OrderNumberBase,
	})
	bulkOperator := bulk.NewOperator(orderService, policy, logger)
	brandingReader := branding.NewReader(branding.NewDBLoader(dbpool), branding.Config{
		TTL:             cfg.BrandingTTL,
		DefaultCurrency: cfg.AppCurrency,
	}, logger)

	ordersHandler := api.NewHandler(api.Config{
		Orders:      orderService,
		Bulk:        bulkOperator,
		Branding:    brandingReader,
		Idempotency: idempotencyStore,
		RBAC:        rbacMiddleware,
		Logger:      logger,
	})

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Sessions:           sessions,
		OrdersHandler:      ordersHandler,
		JobHandler:         jobHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(policy),
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
