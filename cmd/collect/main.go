package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/worldbank"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/collector"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/config"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := worldbank.NewClient(cfg.WorldBankBaseURL, cfg.WorldBankTimeout, logger)
	source := worldbank.NewCachedSource(client, cfg.WorldBankCacheSize, metrics)

	c := collector.New(source, cfg.DataDir, cfg.WorldBankDateRange, cfg.WorldBankRequestDelay, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	color.Cyan("Collecting World Bank indicators and sample resilience data...")

	report, err := c.Run(ctx)
	if err != nil {
		color.Red("Collection failed: %v", err)
		os.Exit(1)
	}

	color.Green("Collection complete")
	color.White("  datasets:  %d", report.DatasetsCollected)
	color.White("  total size: %d bytes", report.TotalSizeBytes)
	color.White("  directory: %s", report.DataDirectory)
	color.White("  catalog:   %s/%s", cfg.DataDir, collector.CatalogFile)
}
