package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Year bounds accepted by validation, per the project data dictionary.
const (
	MinYear = 2010
	MaxYear = 2024
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ErrInvalidRecord wraps all validation failures so callers can distinguish
// bad rows from infrastructure errors.
var ErrInvalidRecord = errors.New("invalid record")

// ValidateResilienceRecord checks a raw record against the data dictionary
// bounds: non-empty country, year 2010-2024, all scores in [0, 100].
func ValidateResilienceRecord(r ResilienceRecord) error {
	if strings.TrimSpace(r.Country) == "" {
		return fmt.Errorf("%w: empty country", ErrInvalidRecord)
	}
	if r.Year < MinYear || r.Year > MaxYear {
		return fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidRecord, r.Year, MinYear, MaxYear)
	}
	scores := map[string]float64{
		"infrastructure_score": r.InfrastructureScore,
		"transport_resilience": r.TransportResilience,
		"energy_resilience":    r.EnergyResilience,
		"water_resilience":     r.WaterResilience,
		"digital_resilience":   r.DigitalResilience,
	}
	for name, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s %.2f outside [0, 100]", ErrInvalidRecord, name, v)
		}
	}
	return nil
}

// EnrichResilienceRecord validates and enriches a raw record into its clean
// form: deterministic ID, category average, score band, and processing time.
// ScoreChange and YearlyRank are left for the warehouse window queries.
func EnrichResilienceRecord(r ResilienceRecord) (CleanRecord, error) {
	if err := ValidateResilienceRecord(r); err != nil {
		return CleanRecord{}, err
	}
	country := strings.TrimSpace(r.Country)
	return CleanRecord{
		ID:                  RecordID(country, r.Year),
		Country:             country,
		Year:                r.Year,
		InfrastructureScore: r.InfrastructureScore,
		TransportResilience: r.TransportResilience,
		EnergyResilience:    r.EnergyResilience,
		WaterResilience:     r.WaterResilience,
		DigitalResilience:   r.DigitalResilience,
		AvgResilience:       AverageResilience(r),
		Band:                DeriveBand(r.InfrastructureScore),
		ProcessedAt:         clock.Now().UTC(),
	}, nil
}

// AverageResilience is the mean of the four category scores.
func AverageResilience(r ResilienceRecord) float64 {
	return (r.TransportResilience + r.EnergyResilience + r.WaterResilience + r.DigitalResilience) / 4
}

// DeriveBand maps an infrastructure score to a four-level band:
// critical <40, developing <55, stable <70, advanced >=70.
// Returns nil when the score is 0 (unmeasured).
func DeriveBand(score float64) *string {
	if score == 0 {
		return nil
	}
	var b string
	switch {
	case score < 40:
		b = "critical"
	case score < 55:
		b = "developing"
	case score < 70:
		b = "stable"
	default:
		b = "advanced"
	}
	return &b
}

// CountrySlug lowercases a country name and collapses everything outside
// [a-z0-9] into single hyphens, e.g. "United States" -> "united-states".
func CountrySlug(country string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(country), "-")
	return strings.Trim(s, "-")
}

// RecordID produces a deterministic ID from a record's key fields.
// Deterministic IDs enable idempotent upserts; reprocessing the same raw
// row produces the same ID.
func RecordID(country string, year int) string {
	input := fmt.Sprintf("%s|%d", country, year)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:4])
	slug := CountrySlug(country)
	if slug == "" {
		return short
	}
	return fmt.Sprintf("%s-%d-%s", slug, year, short)
}

// ValidateObservation checks a World Bank observation for the fields the
// warehouse requires. Nil values are valid; missing keys are not.
func ValidateObservation(o IndicatorObservation) error {
	if o.IndicatorCode == "" {
		return fmt.Errorf("%w: empty indicator code", ErrInvalidRecord)
	}
	if strings.TrimSpace(o.Country) == "" && o.CountryCode == "" {
		return fmt.Errorf("%w: observation has neither country name nor code", ErrInvalidRecord)
	}
	if o.Year == 0 {
		return fmt.Errorf("%w: missing year for %s", ErrInvalidRecord, o.IndicatorCode)
	}
	return nil
}
