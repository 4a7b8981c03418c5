// Package main provides the API server entry point for the wallet feed service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-feed/internal/adapter"
	"github.com/wallet-feed/internal/api"
	"github.com/wallet-feed/internal/auth"
	"github.com/wallet-feed/internal/config"
	"github.com/wallet-feed/internal/ingest"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/service"
	"github.com/wallet-feed/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.NewLogger(logging.LevelError, logging.FormatText).WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// Connect to Redis
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	userRepo := storage.NewUserRepository(postgres)
	profileRepo := storage.NewProfileRepository(postgres)
	followRepo := storage.NewFollowRepository(postgres)
	txRepo := storage.NewTransactionRepository(postgres)
	postRepo := storage.NewPostRepository(postgres)
	commentRepo := storage.NewCommentRepository(postgres)
	likeRepo := storage.NewLikeRepository(postgres)
	notificationRepo := storage.NewNotificationRepository(postgres)
	ingestJobRepo := storage.NewIngestJobRepository(postgres)

	// Initialize the ingestion pipeline
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

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, logger)
	profileService := service.NewProfileService(profileRepo)
	postService := service.NewPostService(postRepo, likeRepo, notificationService)
	commentService := service.NewCommentService(commentRepo, postRepo, likeRepo, notificationService)
	likeService := service.NewLikeService(likeRepo, postRepo, commentRepo, notificationService)
	followService := service.NewFollowService(followRepo, userRepo, notificationService)
	feedService := service.NewFeedService(postRepo, likeRepo)

	authenticator := auth.NewAuthenticator(userRepo, queue, logger)

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, authenticator, api.Services{
		Profiles:      profileService,
		Posts:         postService,
		Comments:      commentService,
		Likes:         likeService,
		Follows:       followService,
		Feed:          feedService,
		Notifications: notificationService,
		IngestQueue:   queue,
		IngestJobs:    ingestJobRepo,
	}, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	scheduler.Stop()
	if err := queue.Stop(); err != nil {
		logger.WithError(err).Error("Queue shutdown failed")
	}

	logger.Info("Shutdown complete")
}
