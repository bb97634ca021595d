package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/movledger/internal/adapter/http"
	"github.com/iho/movledger/internal/adapter/http/handler"
	"github.com/iho/movledger/internal/adapter/http/middleware"
	"github.com/iho/movledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/movledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/movledger/internal/adapter/repository/redis"
	"github.com/iho/movledger/internal/infrastructure/config"
	"github.com/iho/movledger/internal/infrastructure/eventpublisher"
	"github.com/iho/movledger/internal/infrastructure/lock"
	"github.com/iho/movledger/internal/infrastructure/metrics"
	"github.com/iho/movledger/internal/infrastructure/postgres"
	"github.com/iho/movledger/internal/infrastructure/redis"
	"github.com/iho/movledger/internal/usecase"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTTL         = 30 * time.Minute
	outboxRetention        = 7 * 24 * time.Hour
)

// storage is the set of adapters behind the use cases.
type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountDirectory
	movements usecase.MovementRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	checks    []handler.HealthCheck
}

// app is the wired service.
type app struct {
	handler     http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// runBackground starts the outbox publisher and limiter cleanup. Both stop
// when ctx is cancelled.
func (a *app) runBackground(ctx context.Context, logger zerolog.Logger) {
	go func() {
		if err := a.publisher.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	if a.rateLimiter == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.rateLimiter.CleanupLimiters(limiterIdleTTL); n > 0 {
					logger.Debug().Int("removed", n).Msg("rate limiters cleaned up")
				}
			}
		}
	}()
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	store, err := openStorage(ctx, cfg, logger, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.New(registry)

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, redis.ClientConfig{
			URL:      cfg.RedisURL,
			PoolSize: cfg.RedisPoolSize,
			Timeout:  cfg.RedisTimeout,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { redisClient.Close() })
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		store.checks = append(store.checks, handler.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	locker := lock.NewKeyedMutex()
	idGen := postgresRepo.NewULIDGenerator()

	movementUC := usecase.NewMovementUseCase(usecase.MovementUseCaseConfig{
		TxManager:   store.txManager,
		Accounts:    store.accounts,
		Movements:   store.movements,
		Outbox:      store.outbox,
		Locker:      locker,
		IDGen:       idGen,
		Retrier:     store.retrier,
		Metrics:     ledgerMetrics,
		Logger:      &logger,
		LockTimeout: cfg.LockTimeout,
	})
	statementUC := usecase.NewStatementUseCase(store.accounts, store.movements, ledgerMetrics)
	accountUC := usecase.NewAccountUseCase(store.txManager, store.accounts, store.outbox, locker, idGen)
	reconciliationUC := usecase.NewReconciliationUseCase(store.accounts, store.movements)

	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close kafka writer")
			}
		})
		publisher = kafkaPublisher
	}
	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Publisher:  publisher,
		Metrics:    ledgerMetrics,
		Logger:     logger.With().Str("component", "outbox").Logger(),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  outboxRetention,
	})

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	routerCfg := httpAdapter.RouterConfig{
		MovementHandler:    handler.NewMovementHandler(movementUC),
		StatementHandler:   handler.NewStatementHandler(statementUC),
		AccountHandler:     handler.NewAccountHandler(accountUC),
		LedgerHandler:      handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:      handler.NewHealthHandler(store.checks...),
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        a.rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             &logger,
	}
	if cfg.MetricsEnabled {
		routerCfg.MetricsHandler = promhttp.HandlerFor(
			prometheus.Gatherers{registry, prometheus.DefaultGatherer},
			promhttp.HandlerOpts{},
		)
	}
	a.handler = httpAdapter.NewRouter(routerCfg)

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger, a *app) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return &storage{
			txManager: memory.NewTxManager(),
			accounts:  memory.NewAccountDirectory(),
			movements: memory.NewMovementStore(),
			outbox:    memory.NewOutboxRepository(),
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		accounts:  postgresRepo.NewAccountDirectory(pool),
		movements: postgresRepo.NewMovementRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		retrier:   postgresRepo.NewRetrier(logger),
		checks: []handler.HealthCheck{
			{Name: "postgres", Ping: pool.Ping},
		},
	}, nil
}
