// Command ledgerd runs the posting worker, the outbox publisher and the ops
// endpoints against one Postgres ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/ledgerpost/internal/adapter/http"
	"github.com/iho/ledgerpost/internal/adapter/http/handler"
	postgresRepo "github.com/iho/ledgerpost/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgerpost/internal/adapter/repository/redis"
	"github.com/iho/ledgerpost/internal/app"
	"github.com/iho/ledgerpost/internal/infrastructure/config"
	"github.com/iho/ledgerpost/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgerpost/internal/infrastructure/jobs"
	"github.com/iho/ledgerpost/internal/infrastructure/logger"
	"github.com/iho/ledgerpost/internal/infrastructure/metrics"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres"
	"github.com/iho/ledgerpost/internal/infrastructure/redis"
)

const readHeaderTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "ledgerd"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("ledgerd stopped with error")
	}
	log.Info().Msg("ledgerd stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	redisOpts, err := jobs.RedisOpts(cfg.RedisURL)
	if err != nil {
		return err
	}
	queue := jobs.NewClient(redisOpts)
	defer queue.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := app.Options{
		Logger:  log,
		Metrics: m,
		Cache:   redisRepo.NewEntryKeyCache(redisClient, cfg.EntryKeyCacheTTL),
		Retrier: postgresRepo.NewRetrier(
			postgresRepo.WithRetrierLogger(log),
			postgresRepo.WithRetrierMetrics(m),
		),
		VATRate: cfg.VATRate,
	}
	if cfg.PostingMode == config.PostingModeAsync {
		opts.Enqueuer = queue
	}
	ledger := app.NewLedger(app.PostgresStores(pool), opts)

	sweep, err := jobs.RetrySweep(cfg.RetrySweepCron, cfg.RetrySweepBatch)
	if err != nil {
		return err
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:       redisOpts,
		Concurrency:     cfg.WorkerConcurrency,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          log,
		Handlers:        jobs.NewHandlers(ledger.Dispatcher, log, m).TaskHandlers(),
		Cron:            []jobs.CronRegistration{sweep},
	})
	if err != nil {
		return err
	}

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		Outbox:    ledger.Stores.Outbox,
		Publisher: outboxSink(cfg, redisClient, log),
		Logger:    log,
		BatchSize: cfg.OutboxBatchSize,
		Interval:  cfg.OutboxInterval,
	})

	server := &http.Server{
		Addr: ":" + cfg.OpsPort,
		Handler: httpAdapter.NewRouter(httpAdapter.RouterConfig{
			Logger:        log,
			HealthHandler: handler.NewHealthHandler(readinessChecks(pool, redisClient)...),
			Registry:      reg,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Info().
		Str("posting_mode", cfg.PostingMode).
		Str("ops_port", cfg.OpsPort).
		Msg("starting ledgerd")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return ignoreCanceled(publisher.Start(gctx)) })
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// outboxSink publishes to the configured Redis stream, or to the log when
// no stream is set.
func outboxSink(cfg *config.Config, client *goredis.Client, log zerolog.Logger) eventpublisher.Publisher {
	if cfg.OutboxStream == "" {
		return eventpublisher.NewLogPublisher(log)
	}
	return eventpublisher.NewRedisStreamPublisher(client, cfg.OutboxStream, 0)
}

func readinessChecks(pool *pgxpool.Pool, client *goredis.Client) []handler.Check {
	return []handler.Check{
		{Name: "postgres", Ping: pool.Ping},
		{Name: "redis", Ping: redis.Ping(client)},
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
