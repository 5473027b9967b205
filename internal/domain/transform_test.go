package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() ResilienceRecord {
	return ResilienceRecord{
		Country:             "United States",
		Year:                2015,
		InfrastructureScore: 62.5,
		TransportResilience: 67.5,
		EnergyResilience:    57.5,
		WaterResilience:     64.5,
		DigitalResilience:   72.5,
	}
}

func TestValidateResilienceRecord(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ResilienceRecord)
		wantErr string
	}{
		{name: "valid", mutate: func(*ResilienceRecord) {}},
		{
			name:    "empty country",
			mutate:  func(r *ResilienceRecord) { r.Country = "   " },
			wantErr: "empty country",
		},
		{
			name:    "year too early",
			mutate:  func(r *ResilienceRecord) { r.Year = 2009 },
			wantErr: "year 2009",
		},
		{
			name:    "year too late",
			mutate:  func(r *ResilienceRecord) { r.Year = 2025 },
			wantErr: "year 2025",
		},
		{
			name:    "negative score",
			mutate:  func(r *ResilienceRecord) { r.EnergyResilience = -1 },
			wantErr: "energy_resilience",
		},
		{
			name:    "score above 100",
			mutate:  func(r *ResilienceRecord) { r.DigitalResilience = 100.5 },
			wantErr: "digital_resilience",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := ValidateResilienceRecord(r)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRecord)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnrichResilienceRecord(t *testing.T) {
	frozen := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	clean, err := EnrichResilienceRecord(validRecord())
	require.NoError(t, err)

	assert.Equal(t, "United States", clean.Country)
	assert.Equal(t, 2015, clean.Year)
	assert.InDelta(t, 65.5, clean.AvgResilience, 1e-9)
	require.NotNil(t, clean.Band)
	assert.Equal(t, "stable", *clean.Band)
	assert.Equal(t, frozen, clean.ProcessedAt)
	assert.Nil(t, clean.ScoreChange)
	assert.Zero(t, clean.YearlyRank)

	// Deterministic ID, prefixed with slug and year.
	again, err := EnrichResilienceRecord(validRecord())
	require.NoError(t, err)
	assert.Equal(t, clean.ID, again.ID)
	assert.Contains(t, clean.ID, "united-states-2015-")
}

func TestEnrichResilienceRecord_Invalid(t *testing.T) {
	r := validRecord()
	r.Year = 1999
	_, err := EnrichResilienceRecord(r)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestEnrichResilienceRecord_TrimsCountry(t *testing.T) {
	r := validRecord()
	r.Country = "  Japan  "
	clean, err := EnrichResilienceRecord(r)
	require.NoError(t, err)
	assert.Equal(t, "Japan", clean.Country)
}

func TestDeriveBand(t *testing.T) {
	band := func(s string) *string { return &s }

	tests := []struct {
		score float64
		want  *string
	}{
		{0, nil},
		{10, band("critical")},
		{39.9, band("critical")},
		{40, band("developing")},
		{54.9, band("developing")},
		{55, band("stable")},
		{69.9, band("stable")},
		{70, band("advanced")},
		{100, band("advanced")},
	}
	for _, tt := range tests {
		got := DeriveBand(tt.score)
		if tt.want == nil {
			assert.Nil(t, got, "score %.1f", tt.score)
			continue
		}
		require.NotNil(t, got, "score %.1f", tt.score)
		assert.Equal(t, *tt.want, *got, "score %.1f", tt.score)
	}
}

func TestCountrySlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"United States", "united-states"},
		{"South Korea", "south-korea"},
		{"Côte d'Ivoire", "c-te-d-ivoire"},
		{"  Japan ", "japan"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountrySlug(tt.in), "input %q", tt.in)
	}
}

func TestRecordID_Deterministic(t *testing.T) {
	a := RecordID("Germany", 2020)
	b := RecordID("Germany", 2020)
	c := RecordID("Germany", 2021)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "germany-2020-")
	assert.Len(t, a, len("germany-2020-")+8)
}

func TestValidateObservation(t *testing.T) {
	v := 4.2
	ok := IndicatorObservation{
		IndicatorCode: "NY.GDP.PCAP.CD",
		IndicatorName: "gdp_per_capita",
		CountryCode:   "DEU",
		Country:       "Germany",
		Year:          2019,
		Value:         &v,
	}
	assert.NoError(t, ValidateObservation(ok))

	// Nil value is valid: the API reports nulls explicitly.
	nullValue := ok
	nullValue.Value = nil
	assert.NoError(t, ValidateObservation(nullValue))

	noCode := ok
	noCode.IndicatorCode = ""
	assert.ErrorIs(t, ValidateObservation(noCode), ErrInvalidRecord)

	noCountry := ok
	noCountry.Country = ""
	noCountry.CountryCode = ""
	assert.ErrorIs(t, ValidateObservation(noCountry), ErrInvalidRecord)

	noYear := ok
	noYear.Year = 0
	assert.ErrorIs(t, ValidateObservation(noYear), ErrInvalidRecord)
}
