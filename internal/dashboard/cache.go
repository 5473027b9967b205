package dashboard

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

const cacheKeyPrefix = "dashboard:"

// ResponseCache caches successful GET responses in Redis. The warehouse only
// changes when the ETL runs, so short TTLs keep the dashboard cheap without
// serving stale data for long.
type ResponseCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewResponseCache creates a cache over the given Redis client. metrics may
// be nil.
func NewResponseCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

// Middleware serves cached responses and stores fresh ones. Redis errors
// degrade to serving uncached, never to failing the request.
func (c *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key := cacheKeyPrefix + r.URL.Path + "?" + r.URL.RawQuery

		cached, err := c.client.Get(r.Context(), key).Bytes()
		if err == nil {
			c.count("hit")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached) //nolint:errcheck
			return
		}
		if err != redis.Nil {
			c.count("bypass")
			c.logger.Warn("response cache unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		c.count("miss")

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK {
			if err := c.client.Set(r.Context(), key, rec.body.Bytes(), c.ttl).Err(); err != nil {
				c.logger.Warn("response cache store failed", "key", key, "error", err)
			}
		}
	})
}

func (c *ResponseCache) count(result string) {
	if c.metrics != nil {
		c.metrics.DashboardCache.WithLabelValues(result).Inc()
	}
}

// recordingWriter tees the response body so it can be cached after serving.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.status == http.StatusOK {
		w.body.Write(p)
	}
	return w.ResponseWriter.Write(p)
}
