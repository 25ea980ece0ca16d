package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/cache"
	"github.com/iamciscoo/tisco-payments/internal/config"
	"github.com/iamciscoo/tisco-payments/internal/db"
	"github.com/iamciscoo/tisco-payments/internal/events"
	"github.com/iamciscoo/tisco-payments/internal/handlers"
	"github.com/iamciscoo/tisco-payments/internal/repository"
	"github.com/iamciscoo/tisco-payments/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment webhook service",
		"port", cfg.Server.Port,
		"environment", cfg.Webhook.Environment,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()

	// The service boots without a data store so operators keep /health and
	// /metrics; the webhook endpoint answers 503 until the store is
	// configured.
	var (
		reconciler service.Reconciler
		health     handlers.HealthChecker
	)
	if cfg.Database.Configured() {
		database, err := db.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		reconciler = service.NewReconcileService(
			repository.NewTransactionRepository(database),
			repository.NewOrderRepository(database),
			repository.NewPaymentLogRepository(database),
			logger,
		)
		health = database
	} else {
		logger.Warn("database not configured; webhook endpoint disabled")
	}

	var invalidator cache.Invalidator = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisInvalidator, err := cache.NewRedisInvalidator(cfg.Redis.Addr, cfg.Redis.Password, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisInvalidator.Close()
		invalidator = redisInvalidator
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("failed to initialize kafka producer", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	router := handlers.NewRouter(reconciler, invalidator, publisher, health, cfg, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
