package domain

import "context"

// IndicatorSource fetches World Bank indicator observations.
type IndicatorSource interface {
	// FetchIndicator downloads all observations for one indicator code across
	// all countries within dateRange ("start:end" years). name is the friendly
	// dataset name attached to each observation.
	FetchIndicator(ctx context.Context, code, name, dateRange string) ([]IndicatorObservation, error)
}
