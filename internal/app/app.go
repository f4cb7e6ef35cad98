// Package app assembles the service: connections, repositories, services,
// handlers, and the HTTP server, with explicit dependency injection
// throughout. Construction is fail-fast; Run blocks until the context is
// canceled and then shuts down in reverse dependency order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tavolo/fulfillment/internal/cache"
	"github.com/tavolo/fulfillment/internal/config"
	"github.com/tavolo/fulfillment/internal/event"
	handler "github.com/tavolo/fulfillment/internal/handler/http"
	"github.com/tavolo/fulfillment/internal/repository/postgres"
	"github.com/tavolo/fulfillment/internal/service"
	"github.com/tavolo/fulfillment/migrations"
	"github.com/tavolo/fulfillment/pkg/database"
	"github.com/tavolo/fulfillment/pkg/health"
	"github.com/tavolo/fulfillment/pkg/kafka"
	"github.com/tavolo/fulfillment/pkg/tracing"
)

// App holds the assembled service and its owned resources.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool        *pgxpool.Pool
	redisClient *redis.Client
	producer    *kafka.Producer
	server      *http.Server

	shutdownTracing func(context.Context) error
}

// New constructs the application. Every dependency is connected and verified
// before this returns; a nil error means the service is ready to serve.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSampling,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracing = shutdownTracing

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.pool = pool

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, cfg.ServiceName)

	var publisher event.Publisher = event.NopPublisher{}
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := producer.Ping(ctx); err != nil {
			logger.Warn("kafka unreachable at startup, events may be dropped",
				slog.String("error", err.Error()))
		}
		a.producer = producer
		publisher = event.NewKafkaPublisher(producer, logger)
	}

	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unreachable, analytics caching disabled",
				slog.String("error", err.Error()))
		} else {
			a.redisClient = client
		}
	}
	analyticsCache := cache.New(a.redisClient, cfg.AnalyticsCacheTTL)

	productRepo := postgres.NewProductRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	discountRepo := postgres.NewDiscountRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	ledger := service.NewStockLedger(inventoryRepo, publisher, logger)
	evaluator := service.NewDiscountEvaluator(discountRepo)
	fulfillment := service.NewFulfillmentService(
		orderRepo, productRepo, inventoryRepo, evaluator, publisher, logger, cfg.TaxRateBps)
	forecaster := service.NewForecaster(orderRepo, analyticsCache, cfg.ForecastWindowDays)
	reorder := service.NewReorderCalculator(
		orderRepo, inventoryRepo, analyticsCache,
		cfg.ReorderWindowDays, cfg.LeadTimeDays, cfg.CostFactor, cfg.DefaultServiceLevel)
	abc := service.NewABCClassifier(orderRepo, analyticsCache)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.redisClient.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Orders:         handler.NewOrderHandler(fulfillment, logger),
		Inventory:      handler.NewInventoryHandler(ledger, logger),
		Analytics:      handler.NewAnalyticsHandler(forecaster, reorder, abc, logger),
		Health:         healthHandler,
		Logger:         logger,
		ServiceName:    cfg.ServiceName,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return a, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	a.Close()

	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(shutdownCtx); err != nil {
			a.logger.Error("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

// Close releases owned connections. Safe to call more than once.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close failed", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close failed", slog.String("error", err.Error()))
		}
		a.redisClient = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
