package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// collection and ETL pipeline.
type Metrics struct {
	RecordsExtracted prometheus.Counter
	RecordsLoaded    prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge
	RunDuration      prometheus.Histogram
	QualityFailures  prometheus.Counter

	// World Bank API metrics.
	WorldBankRequests    *prometheus.CounterVec   // labels: indicator, outcome={success,error,empty}
	WorldBankCache       *prometheus.CounterVec   // labels: result={hit,miss}
	WorldBankAPIDuration prometheus.Histogram

	// Dashboard cache metrics.
	DashboardCache *prometheus.CounterVec // labels: result={hit,miss,bypass}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsExtracted,
		m.RecordsLoaded,
		m.TransformErrors,
		m.PipelineRunning,
		m.RunDuration,
		m.QualityFailures,
		m.WorldBankRequests,
		m.WorldBankCache,
		m.WorldBankAPIDuration,
		m.DashboardCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infra_etl",
			Name:      "records_extracted_total",
			Help:      "Total raw records read from the data directory.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infra_etl",
			Name:      "records_loaded_total",
			Help:      "Total clean records loaded into the warehouse.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infra_etl",
			Name:      "transform_errors_total",
			Help:      "Total records skipped due to validation or enrichment failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "infra_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "infra_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		QualityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infra_etl",
			Name:      "quality_check_failures_total",
			Help:      "Total failed data-quality checks across runs.",
		}),
		WorldBankRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infra_etl",
			Name:      "worldbank_requests_total",
			Help:      "World Bank API requests by indicator and outcome.",
		}, []string{"indicator", "outcome"}),
		WorldBankCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infra_etl",
			Name:      "worldbank_cache_total",
			Help:      "World Bank response cache lookups by result.",
		}, []string{"result"}),
		WorldBankAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "infra_etl",
			Name:      "worldbank_api_duration_seconds",
			Help:      "World Bank API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DashboardCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infra_dashboard",
			Name:      "cache_total",
			Help:      "Dashboard response cache lookups by result.",
		}, []string{"result"}),
	}
}
