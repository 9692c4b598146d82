// Package history persists a summary row per pipeline run to SQLite so CI
// and humans can look back at resolution trends without parsing old reports.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded run summary.
type Entry struct {
	ID           int64         `json:"id"`
	RunID        string        `json:"run_id"`
	RootDocument string        `json:"root_document"`
	Verdict      string        `json:"verdict"`
	Missing      int           `json:"missing"`
	Generated    int           `json:"generated"`
	Findings     int           `json:"findings"`
	Start        time.Time     `json:"start"`
	Duration     time.Duration `json:"duration"`
}

// Store records run summaries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the history database at dbPath. Use
// ":memory:" for an in-memory store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		root_document TEXT NOT NULL,
		verdict TEXT NOT NULL,
		missing INTEGER NOT NULL,
		generated INTEGER NOT NULL,
		findings INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one run summary.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, root_document, verdict, missing, generated, findings, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.RunID, e.RootDocument, e.Verdict, e.Missing, e.Generated, e.Findings,
		e.Start.Unix(), e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, root_document, verdict, missing, generated, findings, started_at, duration_ms FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, durationMS int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.RootDocument, &e.Verdict, &e.Missing, &e.Generated, &e.Findings, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Start = time.Unix(started, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
