// Package csvfile reads and writes the project's CSV artifacts: raw
// resilience scores, raw indicator observations, and warehouse exports.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

// ResilienceHeader is the column order of the raw resilience CSV.
var ResilienceHeader = []string{
	"country", "year", "infrastructure_score", "transport_resilience",
	"energy_resilience", "water_resilience", "digital_resilience",
}

// IndicatorHeader is the column order of raw indicator CSVs.
var IndicatorHeader = []string{
	"indicator_code", "indicator_name", "country_code", "country", "year", "value",
}

// WriteResilience writes resilience records to path, header first.
func WriteResilience(path string, records []domain.ResilienceRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Country,
			strconv.Itoa(r.Year),
			formatScore(r.InfrastructureScore),
			formatScore(r.TransportResilience),
			formatScore(r.EnergyResilience),
			formatScore(r.WaterResilience),
			formatScore(r.DigitalResilience),
		})
	}
	return WriteTable(path, ResilienceHeader, rows)
}

// ReadResilience parses a raw resilience CSV. Columns are matched by header
// name, so column order does not matter.
func ReadResilience(path string) ([]domain.ResilienceRecord, error) {
	rows, err := readByHeader(path)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ResilienceRecord, 0, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row.get("year"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad year %q", path, row.lineNum, row.get("year"))
		}
		rec := domain.ResilienceRecord{
			Country: row.get("country"),
			Year:    year,
		}
		scores := []struct {
			col  string
			dest *float64
		}{
			{"infrastructure_score", &rec.InfrastructureScore},
			{"transport_resilience", &rec.TransportResilience},
			{"energy_resilience", &rec.EnergyResilience},
			{"water_resilience", &rec.WaterResilience},
			{"digital_resilience", &rec.DigitalResilience},
		}
		for _, s := range scores {
			v, err := strconv.ParseFloat(row.get(s.col), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad %s %q", path, row.lineNum, s.col, row.get(s.col))
			}
			*s.dest = v
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteIndicators writes indicator observations to path. Nil values become
// empty cells.
func WriteIndicators(path string, observations []domain.IndicatorObservation) error {
	rows := make([][]string, 0, len(observations))
	for _, o := range observations {
		value := ""
		if o.Value != nil {
			value = strconv.FormatFloat(*o.Value, 'f', -1, 64)
		}
		rows = append(rows, []string{
			o.IndicatorCode, o.IndicatorName, o.CountryCode, o.Country,
			strconv.Itoa(o.Year), value,
		})
	}
	return WriteTable(path, IndicatorHeader, rows)
}

// ReadIndicators parses a raw indicator CSV. Empty value cells become nil.
func ReadIndicators(path string) ([]domain.IndicatorObservation, error) {
	rows, err := readByHeader(path)
	if err != nil {
		return nil, err
	}

	observations := make([]domain.IndicatorObservation, 0, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row.get("year"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad year %q", path, row.lineNum, row.get("year"))
		}
		obs := domain.IndicatorObservation{
			IndicatorCode: row.get("indicator_code"),
			IndicatorName: row.get("indicator_name"),
			CountryCode:   row.get("country_code"),
			Country:       row.get("country"),
			Year:          year,
		}
		if raw := row.get("value"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad value %q", path, row.lineNum, raw)
			}
			obs.Value = &v
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// WriteTable writes an arbitrary header and rows to path.
func WriteTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// Shape returns the row count (excluding header) and column count of a CSV.
func Shape(path string) (rows, cols int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return 0, 0, nil
	}
	return len(all) - 1, len(all[0]), nil
}

// row is a parsed CSV row with field values keyed by header name.
type row struct {
	lineNum int
	fields  map[string]string
}

func (r row) get(col string) string { return r.fields[col] }

func readByHeader(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) < 1 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	header := all[0]
	rows := make([]row, 0, len(all)-1)
	for i, rec := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				fields[strings.TrimSpace(h)] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, row{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
