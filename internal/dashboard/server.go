// Package dashboard serves the analytics JSON API over the warehouse,
// backing each chart of the web dashboard.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/pipeline"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/warehouse"
)

const defaultRankingLimit = 10

// Server is the dashboard HTTP API.
type Server struct {
	store      *warehouse.Store
	finalDir   string
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer builds the dashboard API server. cache may be nil to serve
// without response caching.
func NewServer(addr string, store *warehouse.Store, finalDir string, cache *ResponseCache, logger *slog.Logger) *Server {
	s := &Server{
		store:    store,
		finalDir: finalDir,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cache != nil {
			r.Use(cache.Middleware)
		}
		r.Get("/summary", s.handleSummary)
		r.Get("/scores", s.handleScores)
		r.Get("/rankings", s.handleRankings)
		r.Get("/resilience", s.handleResilience)
		r.Get("/distribution", s.handleDistribution)
		r.Get("/improvement", s.handleImprovement)
		r.Get("/trends", s.handleTrends)
		r.Get("/top-performers", s.handleTopPerformers)
		r.Get("/metadata", s.handleMetadata)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleSummary serves the KPI header block.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary(r.Context())
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleScores serves the score time series, filtered by ?countries= and
// the ?from= / ?to= year range.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	countries := parseCountries(r)
	from, err := parseYear(r, "from", domain.MinYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseYear(r, "to", domain.MaxYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := s.store.ScoreSeries(r.Context(), countries, from, to)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// handleRankings serves the top-N bar chart for one year, defaulting to the
// latest processed year.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	year, err := s.resolveYear(r)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	limit, err := parsePositiveInt(r, "limit", defaultRankingLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rankings, err := s.store.Rankings(r.Context(), year, limit)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}

// handleResilience serves the per-category country means for the heatmap.
func (s *Server) handleResilience(w http.ResponseWriter, r *http.Request) {
	means, err := s.store.CategoryMeans(r.Context(), parseCountries(r))
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, means)
}

// handleDistribution serves the per-category score values for one year.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	year, err := s.resolveYear(r)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	dist, err := s.store.CategoryDistribution(r.Context(), year)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

// handleImprovement serves country summaries sorted by score improvement.
func (s *Server) handleImprovement(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.Improvements(r.Context(), parseCountries(r))
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.store.YearlyTrends(r.Context())
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleTopPerformers(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r, "limit", defaultRankingLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	top, err := s.store.TopPerformers(r.Context(), limit)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// handleMetadata serves the pipeline metadata of the last ETL run.
func (s *Server) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.finalDir, pipeline.MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "no pipeline run recorded yet")
			return
		}
		s.logger.Error("read pipeline metadata failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// resolveYear reads ?year= or falls back to the latest processed year.
func (s *Server) resolveYear(r *http.Request) (int, error) {
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return 0, errBadParam("year", v)
		}
		return year, nil
	}
	return s.store.LatestYear(r.Context())
}

func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, warehouse.ErrNoData):
		writeError(w, http.StatusNotFound, "no processed data available yet")
	case isBadParam(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("warehouse query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseCountries(r *http.Request) []string {
	raw := r.URL.Query().Get("countries")
	if raw == "" {
		return nil
	}
	var countries []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}
	return countries
}

func parseYear(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, errBadParam(key, v)
	}
	return year, nil
}

func parsePositiveInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errBadParam(key, v)
	}
	return n, nil
}

type badParamError struct {
	key, value string
}

func (e badParamError) Error() string {
	return "invalid " + e.key + " parameter: " + strconv.Quote(e.value)
}

func errBadParam(key, value string) error { return badParamError{key: key, value: value} }

func isBadParam(err error) bool {
	var bp badParamError
	return errors.As(err, &bp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
