// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SCHEMA
// =============================================================================

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS queries (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	model       TEXT NOT NULL,
	tokens      INTEGER,
	cost        REAL,
	fragments   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries(created_at);
`

// ErrLedgerClosed is returned by operations on a closed ledger.
var ErrLedgerClosed = errors.New("usage ledger is closed")

// =============================================================================
// LEDGER
// =============================================================================

// UsageRecord is one completed query. It never carries message content.
type UsageRecord struct {
	ID        string
	SessionID string
	Model     string
	Tokens    *uint64
	Cost      *float64
	Fragments int
	Duration  time.Duration
	CreatedAt time.Time
}

// Totals aggregates usage over a period.
type Totals struct {
	Queries   int
	Tokens    uint64
	Cost      float64
	Fragments int
	Duration  time.Duration
}

// Ledger stores usage records in a local SQLite database.
type Ledger struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// NewSessionID returns a fresh identifier grouping the queries of one run.
func NewSessionID() string {
	return uuid.NewString()
}

// Record stores rec, assigning an ID and timestamp when they are empty.
func (l *Ledger) Record(ctx context.Context, rec UsageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return ErrLedgerClosed
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var tokens sql.NullInt64
	if rec.Tokens != nil {
		tokens = sql.NullInt64{Int64: int64(*rec.Tokens), Valid: true}
	}
	var cost sql.NullFloat64
	if rec.Cost != nil {
		cost = sql.NullFloat64{Float64: *rec.Cost, Valid: true}
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO queries (id, session_id, model, tokens, cost, fragments, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Model, tokens, cost,
		rec.Fragments, rec.Duration.Milliseconds(), rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Totals sums every record created at or after since.
// A zero since covers the whole ledger.
func (l *Ledger) Totals(ctx context.Context, since time.Time) (Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return Totals{}, ErrLedgerClosed
	}

	var from int64
	if !since.IsZero() {
		from = since.UnixMilli()
	}

	var (
		t          Totals
		tokens     int64
		durationMs int64
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(tokens), 0), COALESCE(SUM(cost), 0),
		        COALESCE(SUM(fragments), 0), COALESCE(SUM(duration_ms), 0)
		 FROM queries WHERE created_at >= ?`, from,
	).Scan(&t.Queries, &tokens, &t.Cost, &t.Fragments, &durationMs)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to read usage totals: %w", err)
	}

	t.Tokens = uint64(tokens)
	t.Duration = time.Duration(durationMs) * time.Millisecond
	return t, nil
}

// Close closes the database. Safe to call more than once.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
