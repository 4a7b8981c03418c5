// Package main provides the standalone ingestion worker entry point.
// It runs the job queue and refresh scheduler without the HTTP API, for
// deployments that scale ingestion separately from serving.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-feed/internal/adapter"
	"github.com/wallet-feed/internal/config"
	"github.com/wallet-feed/internal/ingest"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.NewLogger(logging.LevelError, logging.FormatText).WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.Info("Ingestion worker starting")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	userRepo := storage.NewUserRepository(postgres)
	txRepo := storage.NewTransactionRepository(postgres)
	postRepo := storage.NewPostRepository(postgres)
	ingestJobRepo := storage.NewIngestJobRepository(postgres)

	provider := adapter.NewCovalentClient(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		cfg.Provider.ChainID,
		cfg.Provider.RequestsPerSecond,
		cfg.Provider.Timeout,
	)
	engine := ingest.NewEngine(provider, txRepo, postRepo, logger)
	queue := ingest.NewQueue(ingestJobRepo, engine, cfg.Ingest.Workers, cfg.Ingest.DispatchInterval, cfg.Ingest.MaxRetries, logger)
	scheduler := ingest.NewScheduler(redis, userRepo, queue, logger)
	queue.SetScheduler(scheduler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queue.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start ingest queue")
	}
	if err := scheduler.Recover(ctx); err != nil {
		logger.WithError(err).Warn("Failed to recover refresh schedule")
	}

	logger.WithField("workers", cfg.Ingest.Workers).Info("Ingestion worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	scheduler.Stop()
	if err := queue.Stop(); err != nil {
		logger.WithError(err).Error("Queue shutdown failed")
	}

	logger.Info("Shutdown complete")
}
