package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/infra/postgres"
	"github.com/LabelSafe/food-advisory-service/internal/infra/server"
	"github.com/LabelSafe/food-advisory-service/pkg/logger"
)

func main() {
	mainContext := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defaultLogger, loggerProvider, err := logger.NewObservableLogger(&cfg)
	if err != nil {
		slog.Warn("OTLP log export unavailable, using local logger", slog.String("error", err.Error()))
		defaultLogger = logger.NewLogger(&cfg)
	}
	slog.SetDefault(defaultLogger)

	conn, err := postgres.Init(cfg)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Username: cfg.RedisUser,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDb,
	})
	if err := redisClient.Ping(mainContext).Err(); err != nil {
		slog.Warn("redis unavailable, product payloads will not be cached", slog.String("error", err.Error()))
	}

	srv := server.New(mainContext, &cfg, conn, redisClient)
	if srv == nil {
		slog.Error("failed to initialize server")
		os.Exit(1)
	}

	srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	srv.Shutdown()

	if err := redisClient.Close(); err != nil {
		slog.Error("failed to close redis client", slog.String("error", err.Error()))
	}

	if loggerProvider != nil {
		if err := loggerProvider.Shutdown(mainContext); err != nil {
			slog.Error("failed to shutdown log provider", slog.String("error", err.Error()))
		}
	}
}
