package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/config"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/dashboard"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := warehouse.Open(cfg.WarehousePath())
	if err != nil {
		logger.Error("failed to open warehouse", "path", cfg.WarehousePath(), "error", err)
		os.Exit(1)
	}

	// Response cache is feature-flagged via REDIS_ENABLED.
	var cache *dashboard.ResponseCache
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without response cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			cache = dashboard.NewResponseCache(redisClient, cfg.RedisCacheTTL, logger, metrics)
			logger.Info("response cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisCacheTTL)
		}
		cancel()
	} else {
		logger.Info("response cache disabled")
	}

	srv := dashboard.NewServer(cfg.DashboardAddr, store, cfg.FinalDir(), cache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dashboard server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("dashboard server shutdown error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("warehouse close error", "error", err)
	}

	logger.Info("shutdown complete")
}
