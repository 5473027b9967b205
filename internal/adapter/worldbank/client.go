// Package worldbank fetches indicator observations from the World Bank API v2.
//
// The API wraps every response in a two-element JSON array: a paging envelope
// followed by the observation rows. Rows for missing country/year combinations
// carry an explicit null value, which is preserved as a nil pointer.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

const perPage = 5000

// Client implements domain.IndicatorSource against the World Bank API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a World Bank API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchIndicator downloads all observations for one indicator code across all
// countries for the given date range ("2010:2023"), following pagination.
func (c *Client) FetchIndicator(ctx context.Context, code, name, dateRange string) ([]domain.IndicatorObservation, error) {
	var out []domain.IndicatorObservation

	for page := 1; ; page++ {
		meta, rows, err := c.fetchPage(ctx, code, dateRange, page)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			obs, err := row.toObservation(name)
			if err != nil {
				c.logger.Warn("skipping malformed observation",
					"indicator", code, "country", row.Country.Value, "date", row.Date, "error", err)
				continue
			}
			out = append(out, obs)
		}

		if page >= meta.pages() {
			break
		}
	}

	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, code, dateRange string, page int) (pageMeta, []observationRow, error) {
	u := fmt.Sprintf("%s/country/all/indicator/%s", c.baseURL, url.PathEscape(code))
	params := url.Values{
		"format":   {"json"},
		"date":     {dateRange},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return pageMeta{}, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageMeta{}, nil, fmt.Errorf("indicator %s request: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return pageMeta{}, nil, fmt.Errorf("world bank API error: status %d: %s", resp.StatusCode, body)
	}

	var envelope []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pageMeta{}, nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope) == 0 {
		return pageMeta{}, nil, fmt.Errorf("indicator %s: empty response envelope", code)
	}

	var meta pageMeta
	if err := json.Unmarshal(envelope[0], &meta); err != nil {
		return pageMeta{}, nil, fmt.Errorf("decode paging envelope: %w", err)
	}

	// The API signals "no data" (e.g. unknown indicator) with a one-element
	// envelope or a null second element.
	if len(envelope) < 2 || string(envelope[1]) == "null" {
		return meta, nil, nil
	}

	var rows []observationRow
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		return pageMeta{}, nil, fmt.Errorf("decode observations: %w", err)
	}
	return meta, rows, nil
}

// pageMeta is the paging envelope. The API is inconsistent about numeric
// types (per_page arrives as a string), hence json.Number.
type pageMeta struct {
	Page  json.Number `json:"page"`
	Pages json.Number `json:"pages"`
	Total json.Number `json:"total"`
}

func (m pageMeta) pages() int {
	n, err := m.Pages.Int64()
	if err != nil || n < 1 {
		return 1
	}
	return int(n)
}

type observationRow struct {
	Indicator struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"indicator"`
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

func (r observationRow) toObservation(name string) (domain.IndicatorObservation, error) {
	year, err := strconv.Atoi(r.Date)
	if err != nil {
		return domain.IndicatorObservation{}, fmt.Errorf("non-numeric date %q", r.Date)
	}
	obs := domain.IndicatorObservation{
		IndicatorCode: r.Indicator.ID,
		IndicatorName: name,
		CountryCode:   r.CountryISO3,
		Country:       r.Country.Value,
		Year:          year,
		Value:         r.Value,
	}
	if err := domain.ValidateObservation(obs); err != nil {
		return domain.IndicatorObservation{}, err
	}
	return obs, nil
}
