// Package main is the entry point for the invoicer background worker.
// It relays invoice events from the outbox to Kafka and expires
// idempotency records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"invoicer/internal/config"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/infrastructure/messaging/kafka"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/pkg/logger"
)

const maintenanceInterval = time.Hour

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log = log.WithComponent("worker")
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(appctx.WithTrace(ctx, appctx.NewTraceContext()), log)

	log.Infow("starting invoicer worker", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL, min(cfg.DBMaxConns, 4))
	poolCfg.Component = "worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Warnw("kafka producer close failed", "error", err)
		}
	}()

	relay := postgres.NewOutboxRelay(txManager, cfg.OutboxBatchSize, producer)
	idempotency := postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := relay.Run(ctx, cfg.OutboxPollInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("outbox relay stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		runMaintenance(ctx, pool, idempotency)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func runMaintenance(ctx context.Context, pool *postgres.Pool, idempotency *postgres.IdempotencyStore) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := idempotency.CleanupExpired(ctx)
			if err != nil {
				logger.Error(ctx, "idempotency cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info(ctx, "idempotency records expired", "count", n)
			}
			pool.LogStats(ctx)
		}
	}
}
