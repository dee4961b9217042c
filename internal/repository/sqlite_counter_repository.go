package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// SQLiteCounterRepository stores counters in a single SQLite table.
type SQLiteCounterRepository struct {
	db *sql.DB
}

// NewSQLiteCounterRepository opens (or creates) the database at path and
// seeds a zero row for every known counter.
func NewSQLiteCounterRepository(ctx context.Context, path string) (*SQLiteCounterRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		CREATE TABLE IF NOT EXISTS counters (
			name TEXT PRIMARY KEY,
			value INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	for _, name := range domain.CounterNames {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO counters (name, value) VALUES (?, 0)`, string(name)); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed counter %s: %w", name, err)
		}
	}

	return &SQLiteCounterRepository{db: db}, nil
}

// Increment adds one to the named counter.
func (r *SQLiteCounterRepository) Increment(ctx context.Context, name domain.CounterName) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCounter, name)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1, updated_at = CURRENT_TIMESTAMP
	`, string(name))
	if err != nil {
		return fmt.Errorf("increment %s: %w", name, err)
	}
	return nil
}

// Snapshot reads all counters in one query.
func (r *SQLiteCounterRepository) Snapshot(ctx context.Context) (domain.Stats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	stats := domain.Stats{ReadAt: time.Now()}
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return domain.Stats{}, fmt.Errorf("scan counter: %w", err)
		}
		stats.Set(domain.CounterName(name), value)
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, fmt.Errorf("iterate counters: %w", err)
	}

	return stats, nil
}

// Reset sets every counter to zero.
func (r *SQLiteCounterRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE counters SET value = 0, updated_at = CURRENT_TIMESTAMP`); err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteCounterRepository) Close() error {
	return r.db.Close()
}
