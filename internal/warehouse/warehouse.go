// Package warehouse is the embedded SQLite analytics store. The ETL loads
// enriched records into raw tables, then derives the analytic tables
// (clean_infrastructure, country_summary, yearly_trends) with SQL window
// functions and aggregates.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Store wraps the SQLite warehouse database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the warehouse at path and applies migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("warehouse migration: %w", err)
	}
	return s, nil
}

// DB exposes the underlying handle for the validate command's read-only checks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping reports whether the database is reachable; the dashboard readiness
// probe uses it.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var currentVersion int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Score columns are intentionally nullable: the quality checks must be
	// able to observe bad data instead of failing the load.
	schema := `
	CREATE TABLE IF NOT EXISTS raw_infrastructure (
		id TEXT NOT NULL,
		country TEXT NOT NULL,
		year INTEGER NOT NULL,
		infrastructure_score REAL,
		transport_resilience REAL,
		energy_resilience REAL,
		water_resilience REAL,
		digital_resilience REAL,
		avg_resilience REAL,
		band TEXT,
		processed_at TEXT NOT NULL,
		PRIMARY KEY (country, year)
	);

	CREATE TABLE IF NOT EXISTS raw_indicators (
		indicator_code TEXT NOT NULL,
		indicator_name TEXT NOT NULL,
		country_code TEXT NOT NULL,
		country TEXT NOT NULL,
		year INTEGER NOT NULL,
		value REAL,
		PRIMARY KEY (indicator_code, country, year)
	);
	CREATE INDEX IF NOT EXISTS idx_indicators_country_year ON raw_indicators(country, year);

	CREATE TABLE IF NOT EXISTS clean_infrastructure (
		id TEXT NOT NULL,
		country TEXT NOT NULL,
		year INTEGER NOT NULL,
		infrastructure_score REAL,
		transport_resilience REAL,
		energy_resilience REAL,
		water_resilience REAL,
		digital_resilience REAL,
		avg_resilience REAL,
		score_change REAL,
		yearly_rank INTEGER,
		band TEXT,
		processed_at TEXT NOT NULL,
		PRIMARY KEY (country, year)
	);
	CREATE INDEX IF NOT EXISTS idx_clean_year ON clean_infrastructure(year);

	CREATE TABLE IF NOT EXISTS country_summary (
		country TEXT PRIMARY KEY,
		first_year INTEGER NOT NULL,
		last_year INTEGER NOT NULL,
		num_years INTEGER NOT NULL,
		avg_score REAL NOT NULL,
		min_score REAL NOT NULL,
		max_score REAL NOT NULL,
		score_improvement REAL NOT NULL,
		avg_yearly_change REAL
	);

	CREATE TABLE IF NOT EXISTS yearly_trends (
		year INTEGER PRIMARY KEY,
		global_avg_score REAL NOT NULL,
		score_std_dev REAL NOT NULL,
		min_score REAL NOT NULL,
		max_score REAL NOT NULL,
		num_countries INTEGER NOT NULL
	);
	`

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}
