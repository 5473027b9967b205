// Command validate performs end-to-end data integrity checks across the
// analytics pipeline: collected raw CSVs, the warehouse tables, and the final
// exports. It verifies row parity, enrichment correctness, ranking
// consistency, and metadata agreement.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/csvfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/parquetfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/pipeline"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/warehouse"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "data directory containing raw/, final/, and the warehouse")
	flag.Parse()

	if code := run(*dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string) int {
	ctx := context.Background()
	rawDir := filepath.Join(dataDir, "raw")
	finalDir := filepath.Join(dataDir, "final")

	fmt.Println("=== Infrastructure Analytics Data Validation ===")
	fmt.Println()

	resilience, err := csvfile.ReadResilience(filepath.Join(rawDir, pipeline.ResilienceFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw resilience data: %v\n", err)
		return 1
	}

	store, err := warehouse.Open(filepath.Join(dataDir, "infrastructure.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open warehouse: %v\n", err)
		return 1
	}
	defer store.Close()

	records, err := store.CleanRecords(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read clean records: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRawData(resilience, rawDir),
		validateEnrichment(records, resilience),
		validateRankings(records),
		validateExports(ctx, store, finalDir),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw resilience, %d warehouse clean\n", len(resilience), len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateRawData checks the collected files against the data dictionary.
func validateRawData(resilience []domain.ResilienceRecord, rawDir string) *phase {
	p := &phase{name: "Raw data dictionary conformance"}

	seen := make(map[string]bool, len(resilience))
	for i, r := range resilience {
		if err := domain.ValidateResilienceRecord(r); err != nil {
			p.errorf("resilience row %d: %v", i+1, err)
		}
		key := fmt.Sprintf("%s|%d", r.Country, r.Year)
		if seen[key] {
			p.errorf("duplicate country/year: %s %d", r.Country, r.Year)
		}
		seen[key] = true
	}

	matches, err := filepath.Glob(filepath.Join(rawDir, "worldbank_*.csv"))
	if err != nil {
		p.errorf("glob indicator files: %v", err)
		return p
	}
	if len(matches) == 0 {
		p.errorf("no World Bank indicator files collected")
	}
	for _, path := range matches {
		obs, err := csvfile.ReadIndicators(path)
		if err != nil {
			p.errorf("%s: %v", filepath.Base(path), err)
			continue
		}
		for i, o := range obs {
			if err := domain.ValidateObservation(o); err != nil {
				p.errorf("%s row %d: %v", filepath.Base(path), i+1, err)
			}
		}
	}
	return p
}

// validateEnrichment checks that every warehouse row matches its raw source
// record after enrichment.
func validateEnrichment(records []domain.CleanRecord, resilience []domain.ResilienceRecord) *phase {
	p := &phase{name: "Warehouse enrichment correctness"}

	if len(records) != len(resilience) {
		p.errorf("row count mismatch: %d raw vs %d warehouse", len(resilience), len(records))
	}

	for _, r := range records {
		if want := domain.RecordID(r.Country, r.Year); r.ID != want {
			p.errorf("%s %d: id %q, want %q", r.Country, r.Year, r.ID, want)
		}
		wantAvg := (r.TransportResilience + r.EnergyResilience + r.WaterResilience + r.DigitalResilience) / 4
		if math.Abs(r.AvgResilience-wantAvg) > 1e-6 {
			p.errorf("%s %d: avg_resilience %.4f, want %.4f", r.Country, r.Year, r.AvgResilience, wantAvg)
		}
		wantBand := domain.DeriveBand(r.InfrastructureScore)
		switch {
		case wantBand == nil && r.Band != nil:
			p.errorf("%s %d: band %q for unmeasured score", r.Country, r.Year, *r.Band)
		case wantBand != nil && (r.Band == nil || *r.Band != *wantBand):
			p.errorf("%s %d: band mismatch for score %.1f", r.Country, r.Year, r.InfrastructureScore)
		}
	}
	return p
}

// validateRankings checks yearly rank consistency: ranks start at 1 per year
// and higher scores never rank below lower ones.
func validateRankings(records []domain.CleanRecord) *phase {
	p := &phase{name: "Yearly ranking consistency"}

	byYear := make(map[int][]domain.CleanRecord)
	for _, r := range records {
		byYear[r.Year] = append(byYear[r.Year], r)
	}

	for year, rows := range byYear {
		best := 0
		var bestScore float64
		for _, r := range rows {
			if r.YearlyRank < 1 || r.YearlyRank > len(rows) {
				p.errorf("%d: %s has rank %d outside 1..%d", year, r.Country, r.YearlyRank, len(rows))
			}
			if best == 0 || r.InfrastructureScore > bestScore {
				best = r.YearlyRank
				bestScore = r.InfrastructureScore
			}
		}
		if best != 1 {
			p.errorf("%d: highest score has rank %d, want 1", year, best)
		}
		for _, a := range rows {
			for _, b := range rows {
				if a.InfrastructureScore > b.InfrastructureScore && a.YearlyRank > b.YearlyRank {
					p.errorf("%d: %s (%.1f) ranked below %s (%.1f)",
						year, a.Country, a.InfrastructureScore, b.Country, b.InfrastructureScore)
				}
			}
		}
	}
	return p
}

// validateExports checks that the final CSV and Parquet exports agree with
// the warehouse row counts and that the run metadata matches.
func validateExports(ctx context.Context, store *warehouse.Store, finalDir string) *phase {
	p := &phase{name: "Final export parity"}

	for _, table := range warehouse.DerivedTables {
		want, err := store.Count(ctx, table)
		if err != nil {
			p.errorf("count %s: %v", table, err)
			continue
		}

		csvRows, _, err := csvfile.Shape(filepath.Join(finalDir, table+".csv"))
		if err != nil {
			p.errorf("%s.csv: %v", table, err)
		} else if csvRows != want {
			p.errorf("%s.csv has %d rows, warehouse has %d", table, csvRows, want)
		}

		pqRows, err := parquetfile.NumRows(filepath.Join(finalDir, table+".parquet"))
		if err != nil {
			p.errorf("%s.parquet: %v", table, err)
		} else if int(pqRows) != want {
			p.errorf("%s.parquet has %d rows, warehouse has %d", table, pqRows, want)
		}
	}

	if _, _, err := csvfile.Shape(filepath.Join(finalDir, pipeline.TopPerformersFile)); err != nil {
		p.errorf("%s: %v", pipeline.TopPerformersFile, err)
	}

	meta, err := readJSON[domain.PipelineMetadata](filepath.Join(finalDir, pipeline.MetadataFile))
	if err != nil {
		p.errorf("%s: %v", pipeline.MetadataFile, err)
	} else {
		for table, count := range meta.RecordCounts {
			want, err := store.Count(ctx, table)
			if err != nil {
				p.errorf("count %s: %v", table, err)
				continue
			}
			if count != want {
				p.errorf("metadata says %d rows in %s, warehouse has %d", count, table, want)
			}
		}
	}

	report, err := readJSON[domain.QualityReport](filepath.Join(finalDir, pipeline.QualityReportFile))
	if err != nil {
		p.errorf("%s: %v", pipeline.QualityReportFile, err)
	} else {
		for _, c := range report.Checks {
			if !c.Passed {
				p.errorf("quality check %s failed: %s", c.Check, c.Details)
			}
		}
	}
	return p
}

func readJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return v, nil
}
