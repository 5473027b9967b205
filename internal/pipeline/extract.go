package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/csvfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

// ResilienceFile is the collected infrastructure scores CSV inside the raw
// data directory. Indicator files follow the worldbank_<name>.csv pattern.
const ResilienceFile = "infrastructure_resilience_scores.csv"

// CSVExtractor reads collected CSV files from the raw data directory.
type CSVExtractor struct {
	rawDir string
	logger *slog.Logger
}

// NewCSVExtractor creates an extractor over the given raw data directory.
func NewCSVExtractor(rawDir string, logger *slog.Logger) *CSVExtractor {
	return &CSVExtractor{rawDir: rawDir, logger: logger}
}

// Extract reads the resilience scores file and every collected World Bank
// indicator file. The resilience file is required; indicator files are
// optional and skipped with a warning when unreadable.
func (e *CSVExtractor) Extract(ctx context.Context) (domain.RawDataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawDataset{}, err
	}

	resiliencePath := filepath.Join(e.rawDir, ResilienceFile)
	resilience, err := csvfile.ReadResilience(resiliencePath)
	if err != nil {
		return domain.RawDataset{}, fmt.Errorf("read resilience scores: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(e.rawDir, "worldbank_*.csv"))
	if err != nil {
		return domain.RawDataset{}, fmt.Errorf("glob indicator files: %w", err)
	}

	var indicators []domain.IndicatorObservation
	for _, path := range matches {
		obs, err := csvfile.ReadIndicators(path)
		if err != nil {
			e.logger.Warn("skipping unreadable indicator file", "path", path, "error", err)
			continue
		}
		e.logger.Debug("read indicator file", "path", path, "observations", len(obs))
		indicators = append(indicators, obs...)
	}

	return domain.RawDataset{Resilience: resilience, Indicators: indicators}, nil
}
