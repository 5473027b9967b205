package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/adapter/csvfile"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
)

// BuildCatalog describes every CSV file in the raw directory: its shape on
// disk, size, and modification time. Unreadable files are skipped.
func BuildCatalog(rawDir string) ([]domain.CatalogEntry, error) {
	matches, err := filepath.Glob(filepath.Join(rawDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob raw files: %w", err)
	}
	sort.Strings(matches)

	var entries []domain.CatalogEntry
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		rows, cols, err := csvfile.Shape(path)
		if err != nil {
			continue
		}
		entries = append(entries, domain.CatalogEntry{
			Filename:   filepath.Base(path),
			Rows:       rows,
			Columns:    cols,
			SizeBytes:  info.Size(),
			Downloaded: info.ModTime().UTC(),
		})
	}
	return entries, nil
}

func writeCatalogCSV(path string, entries []domain.CatalogEntry) error {
	header := []string{"filename", "rows", "columns", "size_bytes", "downloaded"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Filename,
			strconv.Itoa(e.Rows),
			strconv.Itoa(e.Columns),
			strconv.FormatInt(e.SizeBytes, 10),
			e.Downloaded.Format("2006-01-02 15:04:05"),
		})
	}
	return csvfile.WriteTable(path, header, rows)
}
