package domain

import "time"

// ResilienceRecord is a raw infrastructure resilience row as collected.
// Scores are on a 0-100 scale.
type ResilienceRecord struct {
	Country             string  `json:"country"`
	Year                int     `json:"year"`
	InfrastructureScore float64 `json:"infrastructure_score"`
	TransportResilience float64 `json:"transport_resilience"`
	EnergyResilience    float64 `json:"energy_resilience"`
	WaterResilience     float64 `json:"water_resilience"`
	DigitalResilience   float64 `json:"digital_resilience"`
}

// IndicatorObservation is one World Bank data point for a country and year.
// Value is nil when the API reports null for that combination.
type IndicatorObservation struct {
	IndicatorCode string   `json:"indicator_code"`
	IndicatorName string   `json:"indicator_name"`
	CountryCode   string   `json:"country_code"` // ISO3, e.g. "USA"
	Country       string   `json:"country"`
	Year          int      `json:"year"`
	Value         *float64 `json:"value"`
}

// CleanRecord is the enriched representation loaded into the warehouse.
// ScoreChange and YearlyRank are derived by the warehouse window queries
// after load; they are zero-valued until then.
type CleanRecord struct {
	ID                  string    `json:"id"`
	Country             string    `json:"country"`
	Year                int       `json:"year"`
	InfrastructureScore float64   `json:"infrastructure_score"`
	TransportResilience float64   `json:"transport_resilience"`
	EnergyResilience    float64   `json:"energy_resilience"`
	WaterResilience     float64   `json:"water_resilience"`
	DigitalResilience   float64   `json:"digital_resilience"`
	AvgResilience       float64   `json:"avg_resilience"`
	ScoreChange         *float64  `json:"score_change,omitempty"`
	YearlyRank          int       `json:"yearly_rank,omitempty"`
	Band                *string   `json:"band,omitempty"`
	ProcessedAt         time.Time `json:"processed_at"`
}

// CountrySummary aggregates a country's scores across all observed years.
type CountrySummary struct {
	Country          string  `json:"country"`
	FirstYear        int     `json:"first_year"`
	LastYear         int     `json:"last_year"`
	NumYears         int     `json:"num_years"`
	AvgScore         float64 `json:"avg_score"`
	MinScore         float64 `json:"min_score"`
	MaxScore         float64 `json:"max_score"`
	ScoreImprovement float64 `json:"score_improvement"`
	AvgYearlyChange  float64 `json:"avg_yearly_change"`
}

// YearlyTrend aggregates all countries' scores for a single year.
type YearlyTrend struct {
	Year           int     `json:"year"`
	GlobalAvgScore float64 `json:"global_avg_score"`
	ScoreStdDev    float64 `json:"score_std_dev"`
	MinScore       float64 `json:"min_score"`
	MaxScore       float64 `json:"max_score"`
	NumCountries   int     `json:"num_countries"`
}

// TopPerformer is a row of the top-performers ranking for the latest year.
type TopPerformer struct {
	Country          string  `json:"country"`
	AvgScore         float64 `json:"avg_score"`
	ScoreImprovement float64 `json:"score_improvement"`
	LatestScore      float64 `json:"latest_score"`
	LatestRank       int     `json:"latest_rank"`
}

// CategoryMeans holds per-category average resilience for a country,
// the dashboard's heatmap rows.
type CategoryMeans struct {
	Country   string  `json:"country"`
	Transport float64 `json:"transport"`
	Energy    float64 `json:"energy"`
	Water     float64 `json:"water"`
	Digital   float64 `json:"digital"`
}

// RawDataset is the output of the extract stage.
type RawDataset struct {
	Resilience []ResilienceRecord
	Indicators []IndicatorObservation
}

// CleanDataset is the output of the transform stage.
type CleanDataset struct {
	Records    []CleanRecord
	Indicators []IndicatorObservation
}

// DashboardSummary is the KPI header block of the dashboard.
type DashboardSummary struct {
	TotalCountries int     `json:"total_countries"`
	AvgScore       float64 `json:"avg_score"`
	BestPerformer  string  `json:"best_performer"`
	TotalRecords   int     `json:"total_records"`
	LatestYear     int     `json:"latest_year"`
}

// ScorePoint is one point of a per-country score time series.
type ScorePoint struct {
	Country string  `json:"country"`
	Year    int     `json:"year"`
	Score   float64 `json:"score"`
}

// RankingEntry is one row of a yearly ranking.
type RankingEntry struct {
	Country string  `json:"country"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// CategoryDistribution holds the per-category score values of one year
// across all countries, for distribution plots.
type CategoryDistribution struct {
	Year      int       `json:"year"`
	Transport []float64 `json:"transport"`
	Energy    []float64 `json:"energy"`
	Water     []float64 `json:"water"`
	Digital   []float64 `json:"digital"`
}

// CatalogEntry describes one collected raw data file.
type CatalogEntry struct {
	Filename   string    `json:"filename"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	SizeBytes  int64     `json:"size_bytes"`
	Downloaded time.Time `json:"downloaded"`
}

// CollectionReport summarizes a collector run.
type CollectionReport struct {
	RunDate           time.Time `json:"run_date"`
	DatasetsCollected int       `json:"datasets_collected"`
	TotalSizeBytes    int64     `json:"total_size_bytes"`
	DataDirectory     string    `json:"data_directory"`
}

// PipelineMetadata records what an ETL run produced.
type PipelineMetadata struct {
	RunID         string         `json:"run_id"`
	PipelineRun   time.Time      `json:"pipeline_run"`
	TablesCreated []string       `json:"tables_created"`
	RecordCounts  map[string]int `json:"record_counts"`
}

// QualityCheck is a single named data-quality check result.
type QualityCheck struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// QualityReport is the full quality-check output of an ETL run.
type QualityReport struct {
	Timestamp time.Time      `json:"timestamp"`
	Checks    []QualityCheck `json:"checks"`
	AllPassed bool           `json:"all_passed"`
}
