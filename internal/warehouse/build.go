package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

// Tables derived by an ETL run, in build order.
var DerivedTables = []string{"clean_infrastructure", "country_summary", "yearly_trends"}

// UpsertRecords loads enriched records into raw_infrastructure. Deterministic
// IDs make the load idempotent: replaying a record updates in place.
func (s *Store) UpsertRecords(ctx context.Context, records []domain.CleanRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO raw_infrastructure (
		id, country, year, infrastructure_score, transport_resilience,
		energy_resilience, water_resilience, digital_resilience,
		avg_resilience, band, processed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(country, year) DO UPDATE SET
		id = excluded.id,
		infrastructure_score = excluded.infrastructure_score,
		transport_resilience = excluded.transport_resilience,
		energy_resilience = excluded.energy_resilience,
		water_resilience = excluded.water_resilience,
		digital_resilience = excluded.digital_resilience,
		avg_resilience = excluded.avg_resilience,
		band = excluded.band,
		processed_at = excluded.processed_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Country, r.Year, r.InfrastructureScore, r.TransportResilience,
			r.EnergyResilience, r.WaterResilience, r.DigitalResilience,
			r.AvgResilience, r.Band, r.ProcessedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertIndicators loads World Bank observations into raw_indicators.
func (s *Store) UpsertIndicators(ctx context.Context, observations []domain.IndicatorObservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO raw_indicators (indicator_code, indicator_name, country_code, country, year, value)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(indicator_code, country, year) DO UPDATE SET
		indicator_name = excluded.indicator_name,
		country_code = excluded.country_code,
		value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range observations {
		if _, err := stmt.ExecContext(ctx,
			o.IndicatorCode, o.IndicatorName, o.CountryCode, o.Country, o.Year, o.Value,
		); err != nil {
			return fmt.Errorf("upsert indicator %s/%s/%d: %w", o.IndicatorCode, o.Country, o.Year, err)
		}
	}
	return tx.Commit()
}

// BuildCleanTable rebuilds clean_infrastructure from raw_infrastructure,
// deriving score_change (year-over-year, per country) and yearly_rank
// (rank of infrastructure_score descending within each year).
func (s *Store) BuildCleanTable(ctx context.Context) error {
	return s.rebuild(ctx, "clean_infrastructure", `
	INSERT INTO clean_infrastructure (
		id, country, year, infrastructure_score, transport_resilience,
		energy_resilience, water_resilience, digital_resilience,
		avg_resilience, score_change, yearly_rank, band, processed_at
	)
	SELECT
		id, country, year, infrastructure_score, transport_resilience,
		energy_resilience, water_resilience, digital_resilience,
		avg_resilience,
		infrastructure_score - LAG(infrastructure_score, 1)
			OVER (PARTITION BY country ORDER BY year) AS score_change,
		RANK() OVER (PARTITION BY year ORDER BY infrastructure_score DESC) AS yearly_rank,
		band, processed_at
	FROM raw_infrastructure
	WHERE year >= 2010
	ORDER BY country, year
	`)
}

// BuildCountrySummary rebuilds the per-country aggregate table from
// clean_infrastructure. AVG(score_change) skips each country's first year,
// whose change is NULL.
func (s *Store) BuildCountrySummary(ctx context.Context) error {
	return s.rebuild(ctx, "country_summary", `
	INSERT INTO country_summary (
		country, first_year, last_year, num_years, avg_score,
		min_score, max_score, score_improvement, avg_yearly_change
	)
	SELECT
		country,
		MIN(year), MAX(year), COUNT(*),
		AVG(infrastructure_score),
		MIN(infrastructure_score), MAX(infrastructure_score),
		MAX(infrastructure_score) - MIN(infrastructure_score),
		AVG(score_change)
	FROM clean_infrastructure
	GROUP BY country
	`)
}

// BuildYearlyTrends rebuilds the per-year aggregate table. SQLite has no
// STDDEV aggregate; population standard deviation is computed as
// sqrt(avg(x*x) - avg(x)*avg(x)), clamped at zero against floating-point drift.
func (s *Store) BuildYearlyTrends(ctx context.Context) error {
	return s.rebuild(ctx, "yearly_trends", `
	INSERT INTO yearly_trends (
		year, global_avg_score, score_std_dev, min_score, max_score, num_countries
	)
	SELECT
		year,
		AVG(infrastructure_score),
		sqrt(max(
			AVG(infrastructure_score * infrastructure_score)
				- AVG(infrastructure_score) * AVG(infrastructure_score),
			0.0)),
		MIN(infrastructure_score),
		MAX(infrastructure_score),
		COUNT(DISTINCT country)
	FROM clean_infrastructure
	GROUP BY year
	ORDER BY year
	`)
}

func (s *Store) rebuild(ctx context.Context, table, insertSQL string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, insertSQL); err != nil {
		return fmt.Errorf("build %s: %w", table, err)
	}
	return tx.Commit()
}

// Count returns the row count of a warehouse table. The table name must come
// from a trusted caller; it is interpolated, not bound.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
