package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/flightscope/flightscope/internal/geo"
)

// SQLiteDriver is the database/sql driver name registered by modernc.org/sqlite.
const SQLiteDriver = "sqlite"

// SQLite reads the airport_coordinates table from a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open(SQLiteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := NewSQLite(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Migrate creates the airport_coordinates table if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS airport_coordinates (
			iata_code TEXT PRIMARY KEY,
			lat REAL NOT NULL,
			lng REAL NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create airport_coordinates table: %w", err)
	}
	return nil
}

// Seed upserts entries in a single transaction.
func (s *SQLite) Seed(ctx context.Context, entries map[string]geo.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airport_coordinates (iata_code, lat, lng) VALUES (?, ?, ?)
		ON CONFLICT(iata_code) DO UPDATE SET lat = excluded.lat, lng = excluded.lng
	`)
	if err != nil {
		return fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for code, pos := range entries {
		if _, err := stmt.ExecContext(ctx, code, pos.Lat, pos.Lng); err != nil {
			return fmt.Errorf("seed %s: %w", code, err)
		}
	}
	return tx.Commit()
}

// Load implements Source.
func (s *SQLite) Load(ctx context.Context) (*geo.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT iata_code, lat, lng FROM airport_coordinates`)
	if err != nil {
		return nil, wrapLoad("sqlite", err)
	}
	defer rows.Close()

	entries := make(map[string]geo.Position)
	for rows.Next() {
		var code string
		var pos geo.Position
		if err := rows.Scan(&code, &pos.Lat, &pos.Lng); err != nil {
			return nil, wrapLoad("sqlite", err)
		}
		entries[code] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, wrapLoad("sqlite", err)
	}
	return geo.NewTable(entries), nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
