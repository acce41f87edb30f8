package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "liheapcli/internal/errors"
	"liheapcli/pkg/contracts/domain"
)

// DB wraps the SQLite copy of the final analysis table
type DB struct {
	conn *sql.DB
}

// Open creates the database file if needed and initializes the schema
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create database directory", err)
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.NewStorageError("opening database", err).WithContext("path", dbPath)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, apperrors.NewStorageError("initializing schema", err).WithContext("path", dbPath)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS liheap_full_combined (
		zip_code TEXT NOT NULL,
		year INTEGER NOT NULL,
		total_pledge TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		median_income TEXT,
		population INTEGER,
		unemployment_rate REAL,
		county TEXT,
		county_fips TEXT,
		PRIMARY KEY (zip_code, year)
	);
	CREATE INDEX IF NOT EXISTS idx_final_county_fips ON liheap_full_combined(county_fips);
	CREATE TABLE IF NOT EXISTS export_runs (
		run_id TEXT PRIMARY KEY,
		exported_at TEXT NOT NULL,
		row_count INTEGER NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ReplaceFinal swaps the stored final table for records in one transaction
// and records the export under runID.
func (db *DB) ReplaceFinal(ctx context.Context, runID string, records []domain.FinalRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM liheap_full_combined`); err != nil {
		return apperrors.NewStorageError("clearing final table", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO liheap_full_combined
		(zip_code, year, total_pledge, record_count, median_income, population, unemployment_rate, county, county_fips)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.NewStorageError("preparing insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ZipCode, r.Year, r.TotalPledge.String(), r.RecordCount,
			r.MedianIncome, r.Population, r.UnemploymentRate, r.County, r.CountyFIPS)
		if err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("inserting %s/%d", r.ZipCode, r.Year), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO export_runs (run_id, exported_at, row_count) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), len(records)); err != nil {
		return apperrors.NewStorageError("recording export run", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("committing final table", err)
	}
	return nil
}

// CountFinal returns the number of stored final rows
func (db *DB) CountFinal(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM liheap_full_combined`).Scan(&n); err != nil {
		return 0, apperrors.NewStorageError("counting final rows", err)
	}
	return n, nil
}

// LoadFinal returns the stored final rows ordered by ZIP and year
func (db *DB) LoadFinal(ctx context.Context) ([]domain.FinalRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
	SELECT zip_code, year, total_pledge, record_count, median_income, population, unemployment_rate, county, county_fips
	FROM liheap_full_combined
	ORDER BY zip_code, year
	`)
	if err != nil {
		return nil, apperrors.NewStorageError("querying final rows", err)
	}
	defer rows.Close()

	var out []domain.FinalRecord
	for rows.Next() {
		var r domain.FinalRecord
		if err := rows.Scan(&r.ZipCode, &r.Year, &r.TotalPledge, &r.RecordCount,
			&r.MedianIncome, &r.Population, &r.UnemploymentRate, &r.County, &r.CountyFIPS); err != nil {
			return nil, apperrors.NewStorageError("scanning final row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterating final rows", err)
	}
	return out, nil
}

// LastExport returns the most recent export run ID and its row count
func (db *DB) LastExport(ctx context.Context) (string, int, error) {
	var runID string
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT run_id, row_count FROM export_runs ORDER BY exported_at DESC, rowid DESC LIMIT 1`).Scan(&runID, &n)
	if err == sql.ErrNoRows {
		return "", 0, apperrors.NewNotFoundError("export run")
	}
	if err != nil {
		return "", 0, apperrors.NewStorageError("querying export runs", err)
	}
	return runID, n, nil
}
