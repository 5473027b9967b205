package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

// ErrNoData is returned by queries that need at least one ETL run to have
// completed.
var ErrNoData = errors.New("warehouse has no processed data")

// CleanRecords returns all rows of clean_infrastructure ordered by country
// and year; the exporters and the Kafka sink iterate it.
func (s *Store) CleanRecords(ctx context.Context) ([]domain.CleanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, country, year, infrastructure_score, transport_resilience,
	       energy_resilience, water_resilience, digital_resilience,
	       avg_resilience, score_change, yearly_rank, band, processed_at
	FROM clean_infrastructure
	ORDER BY country, year
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CleanRecord
	for rows.Next() {
		var (
			r           domain.CleanRecord
			scoreChange sql.NullFloat64
			band        sql.NullString
			processedAt string
		)
		if err := rows.Scan(
			&r.ID, &r.Country, &r.Year, &r.InfrastructureScore, &r.TransportResilience,
			&r.EnergyResilience, &r.WaterResilience, &r.DigitalResilience,
			&r.AvgResilience, &scoreChange, &r.YearlyRank, &band, &processedAt,
		); err != nil {
			return nil, err
		}
		if scoreChange.Valid {
			v := scoreChange.Float64
			r.ScoreChange = &v
		}
		if band.Valid {
			b := band.String
			r.Band = &b
		}
		if t, err := time.Parse(time.RFC3339, processedAt); err == nil {
			r.ProcessedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountrySummaries returns all country_summary rows ordered by country.
func (s *Store) CountrySummaries(ctx context.Context) ([]domain.CountrySummary, error) {
	return s.scanSummaries(ctx, `
	SELECT country, first_year, last_year, num_years, avg_score,
	       min_score, max_score, score_improvement, avg_yearly_change
	FROM country_summary
	ORDER BY country
	`)
}

// Improvements returns country summaries sorted by score improvement
// ascending, optionally filtered to the given countries.
func (s *Store) Improvements(ctx context.Context, countries []string) ([]domain.CountrySummary, error) {
	q := `
	SELECT country, first_year, last_year, num_years, avg_score,
	       min_score, max_score, score_improvement, avg_yearly_change
	FROM country_summary
	`
	var args []any
	if len(countries) > 0 {
		q += " WHERE country IN (" + placeholders(len(countries)) + ")"
		for _, c := range countries {
			args = append(args, c)
		}
	}
	q += " ORDER BY score_improvement ASC"
	return s.scanSummaries(ctx, q, args...)
}

func (s *Store) scanSummaries(ctx context.Context, query string, args ...any) ([]domain.CountrySummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CountrySummary
	for rows.Next() {
		var (
			cs     domain.CountrySummary
			change sql.NullFloat64
		)
		if err := rows.Scan(
			&cs.Country, &cs.FirstYear, &cs.LastYear, &cs.NumYears, &cs.AvgScore,
			&cs.MinScore, &cs.MaxScore, &cs.ScoreImprovement, &change,
		); err != nil {
			return nil, err
		}
		if change.Valid {
			cs.AvgYearlyChange = change.Float64
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// YearlyTrends returns all yearly_trends rows ordered by year.
func (s *Store) YearlyTrends(ctx context.Context) ([]domain.YearlyTrend, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT year, global_avg_score, score_std_dev, min_score, max_score, num_countries
	FROM yearly_trends
	ORDER BY year
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.YearlyTrend
	for rows.Next() {
		var t domain.YearlyTrend
		if err := rows.Scan(
			&t.Year, &t.GlobalAvgScore, &t.ScoreStdDev, &t.MinScore, &t.MaxScore, &t.NumCountries,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LatestYear returns the most recent year in clean_infrastructure.
func (s *Store) LatestYear(ctx context.Context) (int, error) {
	var year sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(year) FROM clean_infrastructure").Scan(&year)
	if err != nil {
		return 0, err
	}
	if !year.Valid {
		return 0, ErrNoData
	}
	return int(year.Int64), nil
}

// TopPerformers joins country_summary with the latest year's clean records,
// ordered by latest infrastructure score descending.
func (s *Store) TopPerformers(ctx context.Context, limit int) ([]domain.TopPerformer, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.country, c.avg_score, c.score_improvement,
	       ci.infrastructure_score, ci.yearly_rank
	FROM country_summary c
	JOIN clean_infrastructure ci ON c.country = ci.country
	WHERE ci.year = (SELECT MAX(year) FROM clean_infrastructure)
	ORDER BY ci.infrastructure_score DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TopPerformer
	for rows.Next() {
		var tp domain.TopPerformer
		if err := rows.Scan(
			&tp.Country, &tp.AvgScore, &tp.ScoreImprovement, &tp.LatestScore, &tp.LatestRank,
		); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// Summary computes the dashboard KPI block.
func (s *Store) Summary(ctx context.Context) (domain.DashboardSummary, error) {
	var (
		sum      domain.DashboardSummary
		avgScore sql.NullFloat64
		latest   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(DISTINCT country), AVG(infrastructure_score), COUNT(*), MAX(year)
	FROM clean_infrastructure
	`).Scan(&sum.TotalCountries, &avgScore, &sum.TotalRecords, &latest)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	if !latest.Valid {
		return domain.DashboardSummary{}, ErrNoData
	}
	sum.AvgScore = avgScore.Float64
	sum.LatestYear = int(latest.Int64)

	err = s.db.QueryRowContext(ctx, `
	SELECT country FROM clean_infrastructure
	WHERE year = ? ORDER BY infrastructure_score DESC LIMIT 1
	`, sum.LatestYear).Scan(&sum.BestPerformer)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return sum, nil
}

// ScoreSeries returns the infrastructure score time series for the given
// countries (all countries when empty) between from and to inclusive.
func (s *Store) ScoreSeries(ctx context.Context, countries []string, from, to int) ([]domain.ScorePoint, error) {
	q := `
	SELECT country, year, infrastructure_score
	FROM clean_infrastructure
	WHERE year >= ? AND year <= ?
	`
	args := []any{from, to}
	if len(countries) > 0 {
		q += " AND country IN (" + placeholders(len(countries)) + ")"
		for _, c := range countries {
			args = append(args, c)
		}
	}
	q += " ORDER BY country, year"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScorePoint
	for rows.Next() {
		var p domain.ScorePoint
		if err := rows.Scan(&p.Country, &p.Year, &p.Score); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Rankings returns the top countries by infrastructure score for one year.
func (s *Store) Rankings(ctx context.Context, year, limit int) ([]domain.RankingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT country, infrastructure_score, yearly_rank
	FROM clean_infrastructure
	WHERE year = ?
	ORDER BY infrastructure_score DESC
	LIMIT ?
	`, year, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RankingEntry
	for rows.Next() {
		var e domain.RankingEntry
		if err := rows.Scan(&e.Country, &e.Score, &e.Rank); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CategoryMeans averages the four resilience categories per country,
// optionally filtered to the given countries.
func (s *Store) CategoryMeans(ctx context.Context, countries []string) ([]domain.CategoryMeans, error) {
	q := `
	SELECT country, AVG(transport_resilience), AVG(energy_resilience),
	       AVG(water_resilience), AVG(digital_resilience)
	FROM clean_infrastructure
	`
	var args []any
	if len(countries) > 0 {
		q += " WHERE country IN (" + placeholders(len(countries)) + ")"
		for _, c := range countries {
			args = append(args, c)
		}
	}
	q += " GROUP BY country ORDER BY country"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CategoryMeans
	for rows.Next() {
		var m domain.CategoryMeans
		if err := rows.Scan(&m.Country, &m.Transport, &m.Energy, &m.Water, &m.Digital); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CategoryDistribution returns the per-category score values for one year,
// the raw material for distribution plots.
func (s *Store) CategoryDistribution(ctx context.Context, year int) (domain.CategoryDistribution, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT transport_resilience, energy_resilience, water_resilience, digital_resilience
	FROM clean_infrastructure
	WHERE year = ?
	ORDER BY country
	`, year)
	if err != nil {
		return domain.CategoryDistribution{}, err
	}
	defer rows.Close()

	dist := domain.CategoryDistribution{Year: year}
	for rows.Next() {
		var transport, energy, water, digital float64
		if err := rows.Scan(&transport, &energy, &water, &digital); err != nil {
			return domain.CategoryDistribution{}, err
		}
		dist.Transport = append(dist.Transport, transport)
		dist.Energy = append(dist.Energy, energy)
		dist.Water = append(dist.Water, water)
		dist.Digital = append(dist.Digital, digital)
	}
	return dist, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
