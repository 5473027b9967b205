package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/csvfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/parquetfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/warehouse"
)

// Final export file names inside the final data directory.
const (
	MetadataFile      = "pipeline_metadata.json"
	QualityReportFile = "quality_report.json"
	TopPerformersFile = "top_performers.csv"
)

// RecordSink receives the clean records of each run, e.g. a Kafka producer.
type RecordSink interface {
	PublishBatch(ctx context.Context, records []domain.CleanRecord) error
}

// WarehouseLoader loads clean data into the warehouse, rebuilds the derived
// tables, runs quality checks, and writes the CSV, Parquet, and JSON exports.
type WarehouseLoader struct {
	store    *warehouse.Store
	finalDir string
	sink     RecordSink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewWarehouseLoader creates the standard loader. sink may be nil when no
// downstream consumer is configured.
func NewWarehouseLoader(store *warehouse.Store, finalDir string, sink RecordSink, logger *slog.Logger, metrics *observability.Metrics) *WarehouseLoader {
	return &WarehouseLoader{
		store:    store,
		finalDir: finalDir,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load upserts the clean dataset, rebuilds derived tables, runs quality
// checks, exports everything, and publishes to the sink when configured.
func (l *WarehouseLoader) Load(ctx context.Context, clean domain.CleanDataset) (domain.PipelineMetadata, error) {
	if err := os.MkdirAll(l.finalDir, 0o755); err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("create final dir: %w", err)
	}

	if err := l.store.UpsertRecords(ctx, clean.Records); err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("upsert records: %w", err)
	}
	if err := l.store.UpsertIndicators(ctx, clean.Indicators); err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("upsert indicators: %w", err)
	}

	if err := l.store.BuildCleanTable(ctx); err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("build clean table: %w", err)
	}
	if err := l.store.BuildCountrySummary(ctx); err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("build country summary: %w", err)
	}
	if err := l.store.BuildYearlyTrends(ctx); err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("build yearly trends: %w", err)
	}

	report, err := l.store.RunQualityChecks(ctx)
	if err != nil {
		return domain.PipelineMetadata{}, fmt.Errorf("quality checks: %w", err)
	}
	for _, c := range report.Checks {
		if !c.Passed {
			l.logger.Warn("quality check failed", "check", c.Check, "details", c.Details)
			l.metrics.QualityFailures.Inc()
		}
	}
	if err := writeJSONFile(filepath.Join(l.finalDir, QualityReportFile), report); err != nil {
		return domain.PipelineMetadata{}, err
	}

	if err := l.export(ctx); err != nil {
		return domain.PipelineMetadata{}, err
	}

	meta, err := l.buildMetadata(ctx)
	if err != nil {
		return domain.PipelineMetadata{}, err
	}
	if err := writeJSONFile(filepath.Join(l.finalDir, MetadataFile), meta); err != nil {
		return domain.PipelineMetadata{}, err
	}

	if l.sink != nil {
		records, err := l.store.CleanRecords(ctx)
		if err != nil {
			return domain.PipelineMetadata{}, fmt.Errorf("read clean records for sink: %w", err)
		}
		if err := l.sink.PublishBatch(ctx, records); err != nil {
			return domain.PipelineMetadata{}, fmt.Errorf("publish clean records: %w", err)
		}
	}

	return meta, nil
}

// export writes every derived table as both CSV and Parquet, plus the
// top-performers ranking.
func (l *WarehouseLoader) export(ctx context.Context) error {
	records, err := l.store.CleanRecords(ctx)
	if err != nil {
		return fmt.Errorf("read clean records: %w", err)
	}
	summaries, err := l.store.CountrySummaries(ctx)
	if err != nil {
		return fmt.Errorf("read country summaries: %w", err)
	}
	trends, err := l.store.YearlyTrends(ctx)
	if err != nil {
		return fmt.Errorf("read yearly trends: %w", err)
	}

	if err := l.exportCleanRecords(records); err != nil {
		return err
	}
	if err := l.exportCountrySummaries(summaries); err != nil {
		return err
	}
	if err := l.exportYearlyTrends(trends); err != nil {
		return err
	}
	return l.exportTopPerformers(ctx)
}

func (l *WarehouseLoader) exportCleanRecords(records []domain.CleanRecord) error {
	header := []string{
		"id", "country", "year", "infrastructure_score", "transport_resilience",
		"energy_resilience", "water_resilience", "digital_resilience",
		"avg_resilience", "score_change", "yearly_rank", "band", "processed_at",
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID, r.Country, strconv.Itoa(r.Year),
			formatFloat(r.InfrastructureScore), formatFloat(r.TransportResilience),
			formatFloat(r.EnergyResilience), formatFloat(r.WaterResilience),
			formatFloat(r.DigitalResilience), formatFloat(r.AvgResilience),
			formatNullableFloat(r.ScoreChange), strconv.Itoa(r.YearlyRank),
			formatNullableString(r.Band), r.ProcessedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := csvfile.WriteTable(filepath.Join(l.finalDir, "clean_infrastructure.csv"), header, rows); err != nil {
		return err
	}
	return parquetfile.WriteCleanRecords(filepath.Join(l.finalDir, "clean_infrastructure.parquet"), records)
}

func (l *WarehouseLoader) exportCountrySummaries(summaries []domain.CountrySummary) error {
	header := []string{
		"country", "first_year", "last_year", "num_years", "avg_score",
		"min_score", "max_score", "score_improvement", "avg_yearly_change",
	}
	rows := make([][]string, 0, len(summaries))
	for _, cs := range summaries {
		rows = append(rows, []string{
			cs.Country, strconv.Itoa(cs.FirstYear), strconv.Itoa(cs.LastYear),
			strconv.Itoa(cs.NumYears), formatFloat(cs.AvgScore),
			formatFloat(cs.MinScore), formatFloat(cs.MaxScore),
			formatFloat(cs.ScoreImprovement), formatFloat(cs.AvgYearlyChange),
		})
	}
	if err := csvfile.WriteTable(filepath.Join(l.finalDir, "country_summary.csv"), header, rows); err != nil {
		return err
	}
	return parquetfile.WriteCountrySummaries(filepath.Join(l.finalDir, "country_summary.parquet"), summaries)
}

func (l *WarehouseLoader) exportYearlyTrends(trends []domain.YearlyTrend) error {
	header := []string{
		"year", "global_avg_score", "score_std_dev", "min_score", "max_score", "num_countries",
	}
	rows := make([][]string, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, []string{
			strconv.Itoa(t.Year), formatFloat(t.GlobalAvgScore), formatFloat(t.ScoreStdDev),
			formatFloat(t.MinScore), formatFloat(t.MaxScore), strconv.Itoa(t.NumCountries),
		})
	}
	if err := csvfile.WriteTable(filepath.Join(l.finalDir, "yearly_trends.csv"), header, rows); err != nil {
		return err
	}
	return parquetfile.WriteYearlyTrends(filepath.Join(l.finalDir, "yearly_trends.parquet"), trends)
}

func (l *WarehouseLoader) exportTopPerformers(ctx context.Context) error {
	top, err := l.store.TopPerformers(ctx, 10)
	if err != nil {
		return fmt.Errorf("read top performers: %w", err)
	}
	header := []string{"country", "avg_score", "score_improvement", "latest_score", "latest_rank"}
	rows := make([][]string, 0, len(top))
	for _, tp := range top {
		rows = append(rows, []string{
			tp.Country, formatFloat(tp.AvgScore), formatFloat(tp.ScoreImprovement),
			formatFloat(tp.LatestScore), strconv.Itoa(tp.LatestRank),
		})
	}
	return csvfile.WriteTable(filepath.Join(l.finalDir, TopPerformersFile), header, rows)
}

func (l *WarehouseLoader) buildMetadata(ctx context.Context) (domain.PipelineMetadata, error) {
	counts := make(map[string]int, len(warehouse.DerivedTables))
	for _, table := range warehouse.DerivedTables {
		n, err := l.store.Count(ctx, table)
		if err != nil {
			return domain.PipelineMetadata{}, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return domain.PipelineMetadata{
		RunID:         uuid.NewString(),
		PipelineRun:   domain.Now().UTC(),
		TablesCreated: warehouse.DerivedTables,
		RecordCounts:  counts,
	}, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullableFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatNullableString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
