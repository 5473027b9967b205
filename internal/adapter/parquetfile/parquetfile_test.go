package parquetfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/parquetfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

func TestWriteCleanRecords_RoundTrip(t *testing.T) {
	change := 2.5
	band := "stable"
	records := []domain.CleanRecord{
		{
			ID:                  "alphaland-2011-deadbeef",
			Country:             "Alphaland",
			Year:                2011,
			InfrastructureScore: 62.5,
			TransportResilience: 67.5,
			EnergyResilience:    57.5,
			WaterResilience:     64.5,
			DigitalResilience:   72.5,
			AvgResilience:       65.5,
			ScoreChange:         &change,
			YearlyRank:          1,
			Band:                &band,
			ProcessedAt:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:                  "betaville-2011-cafef00d",
			Country:             "Betaville",
			Year:                2011,
			InfrastructureScore: 48,
			YearlyRank:          2,
			ProcessedAt:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "clean.parquet")
	require.NoError(t, parquetfile.WriteCleanRecords(path, records))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tbl, err := pqarrow.ReadTable(context.Background(), f, nil,
		pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 2, tbl.NumRows())
	assert.EqualValues(t, 13, tbl.NumCols())

	countries := tbl.Column(1).Data().Chunk(0).(*array.String)
	assert.Equal(t, "Alphaland", countries.Value(0))
	assert.Equal(t, "Betaville", countries.Value(1))

	changes := tbl.Column(9).Data().Chunk(0).(*array.Float64)
	assert.Equal(t, 2.5, changes.Value(0))
	assert.True(t, changes.IsNull(1), "missing score change must stay null")

	bands := tbl.Column(11).Data().Chunk(0).(*array.String)
	assert.Equal(t, "stable", bands.Value(0))
	assert.True(t, bands.IsNull(1))
}

func TestWriteCountrySummaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.parquet")
	summaries := []domain.CountrySummary{
		{Country: "Alphaland", FirstYear: 2010, LastYear: 2023, NumYears: 14, AvgScore: 55.5, MinScore: 50, MaxScore: 62, ScoreImprovement: 12, AvgYearlyChange: 0.9},
	}
	require.NoError(t, parquetfile.WriteCountrySummaries(path, summaries))

	n, err := parquetfile.NumRows(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestWriteYearlyTrends_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.parquet")
	require.NoError(t, parquetfile.WriteYearlyTrends(path, nil))

	n, err := parquetfile.NumRows(path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestNumRows_MissingFile(t *testing.T) {
	_, err := parquetfile.NumRows(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}
