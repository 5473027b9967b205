// Package collector downloads World Bank indicators, generates the sample
// resilience dataset, and catalogs everything under the raw data directory.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/csvfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

// Indicator pairs a World Bank indicator code with the friendly name used in
// file names and the warehouse.
type Indicator struct {
	Code string
	Name string
}

// Indicators are the infrastructure and climate series the project collects.
// Some plausible codes (paved roads, railway km) are excluded because the API
// has no data for them.
var Indicators = []Indicator{
	{Code: "EN.GHG.CO2.PC.CE.AR5", Name: "co2_emissions_per_capita"},
	{Code: "NY.GDP.PCAP.CD", Name: "gdp_per_capita"},
	{Code: "SP.POP.TOTL", Name: "population_total"},
	{Code: "EG.FEC.RNEW.ZS", Name: "renewable_energy_consumption"},
}

// CatalogFile and ReportFile land in the data directory, next to raw/.
const (
	CatalogFile = "data_catalog.csv"
	ReportFile  = "collection_report.json"
)

// Collector orchestrates one collection run.
type Collector struct {
	source       domain.IndicatorSource
	dataDir      string
	rawDir       string
	dateRange    string
	requestDelay time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates a Collector writing under dataDir/raw.
func New(source domain.IndicatorSource, dataDir, dateRange string, requestDelay time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		source:       source,
		dataDir:      dataDir,
		rawDir:       filepath.Join(dataDir, "raw"),
		dateRange:    dateRange,
		requestDelay: requestDelay,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run downloads every indicator, writes the sample resilience data, and
// catalogs the results. Individual indicator failures are logged and skipped
// so one bad series never aborts the whole collection.
func (c *Collector) Run(ctx context.Context) (domain.CollectionReport, error) {
	if err := os.MkdirAll(c.rawDir, 0o755); err != nil {
		return domain.CollectionReport{}, fmt.Errorf("create raw dir: %w", err)
	}

	for i, ind := range Indicators {
		if i > 0 {
			// Be nice to the API between requests.
			if !sleepWithContext(ctx, c.requestDelay) {
				return domain.CollectionReport{}, ctx.Err()
			}
		}
		if err := c.collectIndicator(ctx, ind); err != nil {
			if ctx.Err() != nil {
				return domain.CollectionReport{}, ctx.Err()
			}
			c.logger.Warn("indicator collection failed", "indicator", ind.Code, "error", err)
		}
	}

	sample := SampleResilienceData()
	samplePath := filepath.Join(c.rawDir, "infrastructure_resilience_scores.csv")
	if err := csvfile.WriteResilience(samplePath, sample); err != nil {
		return domain.CollectionReport{}, fmt.Errorf("write sample data: %w", err)
	}
	c.logger.Info("sample resilience data written", "rows", len(sample), "path", samplePath)

	return c.catalog()
}

func (c *Collector) collectIndicator(ctx context.Context, ind Indicator) error {
	start := time.Now()
	obs, err := c.source.FetchIndicator(ctx, ind.Code, ind.Name, c.dateRange)
	c.observeRequest(ind.Code, outcomeOf(obs, err), time.Since(start))
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		c.logger.Warn("no data for indicator", "indicator", ind.Code)
		return nil
	}

	path := filepath.Join(c.rawDir, "worldbank_"+ind.Name+".csv")
	if err := csvfile.WriteIndicators(path, obs); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	c.logger.Info("indicator collected", "indicator", ind.Code, "rows", len(obs), "path", path)
	return nil
}

// catalog scans the raw directory and writes the catalog CSV plus the
// collection report JSON.
func (c *Collector) catalog() (domain.CollectionReport, error) {
	entries, err := BuildCatalog(c.rawDir)
	if err != nil {
		return domain.CollectionReport{}, err
	}

	if err := writeCatalogCSV(filepath.Join(c.dataDir, CatalogFile), entries); err != nil {
		return domain.CollectionReport{}, err
	}

	var totalSize int64
	for _, e := range entries {
		totalSize += e.SizeBytes
	}
	report := domain.CollectionReport{
		RunDate:           domain.Now().UTC(),
		DatasetsCollected: len(entries),
		TotalSizeBytes:    totalSize,
		DataDirectory:     c.rawDir,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return domain.CollectionReport{}, fmt.Errorf("marshal collection report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dataDir, ReportFile), data, 0o644); err != nil {
		return domain.CollectionReport{}, fmt.Errorf("write collection report: %w", err)
	}
	return report, nil
}

func (c *Collector) observeRequest(indicator, outcome string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.WorldBankRequests.WithLabelValues(indicator, outcome).Inc()
	c.metrics.WorldBankAPIDuration.Observe(elapsed.Seconds())
}

func outcomeOf(obs []domain.IndicatorObservation, err error) string {
	switch {
	case err != nil:
		return "error"
	case len(obs) == 0:
		return "empty"
	default:
		return "success"
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
