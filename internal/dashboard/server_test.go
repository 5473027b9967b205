package dashboard_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/dashboard"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/pipeline"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/warehouse"
)

func cleanRecord(country string, year int, score float64) domain.CleanRecord {
	return domain.CleanRecord{
		ID:                  domain.RecordID(country, year),
		Country:             country,
		Year:                year,
		InfrastructureScore: score,
		TransportResilience: score + 5,
		EnergyResilience:    score - 5,
		WaterResilience:     score + 2,
		DigitalResilience:   score + 10,
		AvgResilience:       score + 3,
		Band:                domain.DeriveBand(score),
		ProcessedAt:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, seed bool) (*dashboard.Server, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := warehouse.Open(filepath.Join(dir, "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if seed {
		ctx := t.Context()
		require.NoError(t, store.UpsertRecords(ctx, []domain.CleanRecord{
			cleanRecord("Alphaland", 2020, 50),
			cleanRecord("Alphaland", 2021, 53),
			cleanRecord("Betaville", 2020, 62),
			cleanRecord("Betaville", 2021, 61),
		}))
		require.NoError(t, store.BuildCleanTable(ctx))
		require.NoError(t, store.BuildCountrySummary(ctx))
		require.NoError(t, store.BuildYearlyTrends(ctx))
	}

	finalDir := filepath.Join(dir, "final")
	require.NoError(t, os.MkdirAll(finalDir, 0o755))
	return dashboard.NewServer(":0", store, finalDir, nil, slog.Default()), finalDir
}

func get(t *testing.T, srv *dashboard.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	sum := decode[domain.DashboardSummary](t, rec)
	assert.Equal(t, 2, sum.TotalCountries)
	assert.Equal(t, 4, sum.TotalRecords)
	assert.Equal(t, 2021, sum.LatestYear)
	assert.Equal(t, "Betaville", sum.BestPerformer)
}

func TestSummary_EmptyWarehouse(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := get(t, srv, "/api/v1/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScores_Filtered(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/scores?countries=Alphaland&from=2021&to=2021")
	require.Equal(t, http.StatusOK, rec.Code)

	points := decode[[]domain.ScorePoint](t, rec)
	require.Len(t, points, 1)
	assert.Equal(t, "Alphaland", points[0].Country)
	assert.Equal(t, 53.0, points[0].Score)
}

func TestScores_DefaultsToFullRange(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/scores")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.ScorePoint](t, rec), 4)
}

func TestScores_BadYearParam(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/scores?from=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankings_DefaultsToLatestYear(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/rankings")
	require.Equal(t, http.StatusOK, rec.Code)

	rankings := decode[[]domain.RankingEntry](t, rec)
	require.Len(t, rankings, 2)
	assert.Equal(t, "Betaville", rankings[0].Country)
	assert.Equal(t, 1, rankings[0].Rank)
}

func TestRankings_ExplicitYearAndLimit(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/rankings?year=2020&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	rankings := decode[[]domain.RankingEntry](t, rec)
	require.Len(t, rankings, 1)
	assert.Equal(t, "Betaville", rankings[0].Country)
	assert.Equal(t, 62.0, rankings[0].Score)
}

func TestResilienceHeatmap(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/resilience?countries=Alphaland")
	require.Equal(t, http.StatusOK, rec.Code)

	means := decode[[]domain.CategoryMeans](t, rec)
	require.Len(t, means, 1)
	// Transport is score+5; mean over {55, 58}.
	assert.InDelta(t, 56.5, means[0].Transport, 1e-9)
}

func TestDistribution(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/distribution?year=2020")
	require.Equal(t, http.StatusOK, rec.Code)

	dist := decode[domain.CategoryDistribution](t, rec)
	assert.Equal(t, 2020, dist.Year)
	assert.Equal(t, []float64{55, 67}, dist.Transport)
}

func TestImprovement_SortedAscending(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/improvement")
	require.Equal(t, http.StatusOK, rec.Code)

	summaries := decode[[]domain.CountrySummary](t, rec)
	require.Len(t, summaries, 2)
	// Betaville declined (-1), Alphaland improved (+3).
	assert.Equal(t, "Betaville", summaries[0].Country)
	assert.Equal(t, "Alphaland", summaries[1].Country)
}

func TestTrends(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/trends")
	require.Equal(t, http.StatusOK, rec.Code)

	trends := decode[[]domain.YearlyTrend](t, rec)
	require.Len(t, trends, 2)
	assert.Equal(t, 2020, trends[0].Year)
	assert.InDelta(t, 56.0, trends[0].GlobalAvgScore, 1e-9)
}

func TestTopPerformers(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := get(t, srv, "/api/v1/top-performers?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	top := decode[[]domain.TopPerformer](t, rec)
	require.Len(t, top, 1)
	assert.Equal(t, "Betaville", top[0].Country)
}

func TestMetadata(t *testing.T) {
	srv, finalDir := newTestServer(t, true)

	rec := get(t, srv, "/api/v1/metadata")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	meta := domain.PipelineMetadata{RunID: "run-42", RecordCounts: map[string]int{"clean_infrastructure": 4}}
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(finalDir, pipeline.MetadataFile), data, 0o644))

	rec = get(t, srv, "/api/v1/metadata")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.PipelineMetadata](t, rec)
	assert.Equal(t, "run-42", got.RunID)
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/readyz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/metrics").Code)
}
