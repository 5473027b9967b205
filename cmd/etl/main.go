package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/http"
	kafkaadapter "github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/kafka"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/config"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/pipeline"
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

	// Kafka sink is feature-flagged via KAFKA_ENABLED.
	var sink pipeline.RecordSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	extractor := pipeline.NewCSVExtractor(cfg.RawDir(), logger)
	transformer := pipeline.NewTransformer(logger, metrics)
	loader := pipeline.NewWarehouseLoader(store, cfg.FinalDir(), sink, logger, metrics)

	p := pipeline.New(extractor, transformer, loader, logger, metrics, cfg.RunInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("warehouse close error", "error", err)
	}

	logger.Info("shutdown complete")
}
