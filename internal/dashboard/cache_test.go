package dashboard_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/dashboard"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

func countingHandler(calls *atomic.Int64, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body)) //nolint:errcheck
	})
}

func TestResponseCache_MissThenHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	metrics := observability.NewMetricsForTesting()
	cache := dashboard.NewResponseCache(client, time.Minute, slog.Default(), metrics)

	var calls atomic.Int64
	handler := cache.Middleware(countingHandler(&calls, `{"ok":true}`))

	key := "dashboard:/api/v1/summary?"
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte(`{"ok":true}`), time.Minute).SetVal("OK")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.EqualValues(t, 1, calls.Load())

	mock.ExpectGet(key).SetVal(`{"ok":true}`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.EqualValues(t, 1, calls.Load(), "hit must not reach the handler")

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DashboardCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DashboardCache.WithLabelValues("hit")))
}

func TestResponseCache_QueryStringInKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := dashboard.NewResponseCache(client, time.Minute, slog.Default(), nil)

	var calls atomic.Int64
	handler := cache.Middleware(countingHandler(&calls, `[]`))

	key := "dashboard:/api/v1/scores?countries=Alphaland"
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte(`[]`), time.Minute).SetVal("OK")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scores?countries=Alphaland", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCache_RedisDownServesUncached(t *testing.T) {
	client, mock := redismock.NewClientMock()
	metrics := observability.NewMetricsForTesting()
	cache := dashboard.NewResponseCache(client, time.Minute, slog.Default(), metrics)

	var calls atomic.Int64
	handler := cache.Middleware(countingHandler(&calls, `{"ok":true}`))

	mock.ExpectGet("dashboard:/api/v1/summary?").SetErr(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DashboardCache.WithLabelValues("bypass")))
}

func TestResponseCache_ErrorResponsesNotCached(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := dashboard.NewResponseCache(client, time.Minute, slog.Default(), nil)

	handler := cache.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	mock.ExpectGet("dashboard:/api/v1/summary?").RedisNil()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet(), "no Set expected for error responses")
}
