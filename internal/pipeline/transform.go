package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

// RecordTransformer enriches raw records into their clean form, skipping
// individual rows that fail validation.
type RecordTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates the standard record transformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *RecordTransformer {
	return &RecordTransformer{logger: logger, metrics: metrics}
}

// Transform validates and enriches every raw record. Invalid rows are
// counted and skipped rather than failing the run; the run only fails when a
// non-empty input produces no valid records at all.
func (t *RecordTransformer) Transform(ctx context.Context, raw domain.RawDataset) (domain.CleanDataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.CleanDataset{}, err
	}

	clean := domain.CleanDataset{
		Records:    make([]domain.CleanRecord, 0, len(raw.Resilience)),
		Indicators: make([]domain.IndicatorObservation, 0, len(raw.Indicators)),
	}

	for _, r := range raw.Resilience {
		rec, err := domain.EnrichResilienceRecord(r)
		if err != nil {
			t.logger.Warn("skipping invalid resilience record",
				"error", err, "country", r.Country, "year", r.Year)
			t.metrics.TransformErrors.Inc()
			continue
		}
		clean.Records = append(clean.Records, rec)
	}

	for _, o := range raw.Indicators {
		if err := domain.ValidateObservation(o); err != nil {
			t.logger.Warn("skipping invalid indicator observation",
				"error", err, "indicator", o.IndicatorCode)
			t.metrics.TransformErrors.Inc()
			continue
		}
		clean.Indicators = append(clean.Indicators, o)
	}

	if len(raw.Resilience) > 0 && len(clean.Records) == 0 {
		return domain.CleanDataset{}, errors.New("no resilience records survived validation")
	}
	return clean, nil
}
