package warehouse

import (
	"context"
	"fmt"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

// RunQualityChecks inspects clean_infrastructure for null scores, duplicate
// country/year pairs, and out-of-range scores, and returns a report. A failed
// check does not abort the run; the caller decides what to do with it.
func (s *Store) RunQualityChecks(ctx context.Context) (domain.QualityReport, error) {
	report := domain.QualityReport{Timestamp: domain.Now().UTC()}

	nulls, err := s.queryInt(ctx, `
	SELECT COUNT(*) FROM clean_infrastructure WHERE infrastructure_score IS NULL
	`)
	if err != nil {
		return report, fmt.Errorf("null check: %w", err)
	}
	report.Checks = append(report.Checks, domain.QualityCheck{
		Check:   "null_values",
		Passed:  nulls == 0,
		Details: fmt.Sprintf("Found %d null values", nulls),
	})

	dupes, err := s.queryInt(ctx, `
	SELECT COUNT(*) FROM (
		SELECT country, year, COUNT(*) AS cnt
		FROM clean_infrastructure
		GROUP BY country, year
		HAVING COUNT(*) > 1
	)
	`)
	if err != nil {
		return report, fmt.Errorf("duplicate check: %w", err)
	}
	report.Checks = append(report.Checks, domain.QualityCheck{
		Check:   "duplicates",
		Passed:  dupes == 0,
		Details: fmt.Sprintf("Found %d duplicate records", dupes),
	})

	outOfRange, err := s.queryInt(ctx, `
	SELECT COUNT(*) FROM clean_infrastructure
	WHERE infrastructure_score < 0 OR infrastructure_score > 100
	   OR transport_resilience < 0 OR transport_resilience > 100
	   OR energy_resilience < 0 OR energy_resilience > 100
	   OR water_resilience < 0 OR water_resilience > 100
	   OR digital_resilience < 0 OR digital_resilience > 100
	`)
	if err != nil {
		return report, fmt.Errorf("range check: %w", err)
	}
	report.Checks = append(report.Checks, domain.QualityCheck{
		Check:   "score_range",
		Passed:  outOfRange == 0,
		Details: fmt.Sprintf("Found %d scores outside [0, 100]", outOfRange),
	})

	report.AllPassed = true
	for _, c := range report.Checks {
		if !c.Passed {
			report.AllPassed = false
			break
		}
	}
	return report, nil
}

func (s *Store) queryInt(ctx context.Context, query string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}
