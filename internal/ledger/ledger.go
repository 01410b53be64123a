// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of conversion runs and the outcome of
// every spec/data pair converted in them.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/fwconv/pkg/types"
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating its parent
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection serializes writers from concurrent pairs.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS pairs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			spec TEXT NOT NULL,
			data TEXT NOT NULL,
			output TEXT,
			records INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_run_id ON pairs(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one batch conversion in the ledger.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Converted  int       `json:"converted" yaml:"converted"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
	Pairs      []Pair    `json:"pairs,omitempty" yaml:"pairs,omitempty"`

	store *Store
}

// Pair is a recorded pair outcome.
type Pair struct {
	Spec       string           `json:"spec" yaml:"spec"`
	Data       string           `json:"data" yaml:"data"`
	Output     string           `json:"output,omitempty" yaml:"output,omitempty"`
	Records    int              `json:"records" yaml:"records"`
	Status     types.PairStatus `json:"status" yaml:"status"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	RecordedAt time.Time        `json:"recorded_at" yaml:"recorded_at"`
}

// BeginRun inserts a new run and returns it. The run records pairs through
// its Record method.
func (s *Store) BeginRun(ctx context.Context) (*Run, error) {
	r := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		store:     s,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		r.ID, r.StartedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return r, nil
}

// Record stores one pair outcome under the run. It is safe for concurrent use.
func (r *Run) Record(ctx context.Context, res types.PairResult) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO pairs (run_id, spec, data, output, records, status, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, res.Spec, res.Data, res.Output, res.Records, string(res.Status), res.ErrString(),
		time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("inserting pair: %w", err)
	}
	return nil
}

// Finish stores the final counts of the run.
func (r *Run) Finish(ctx context.Context, converted, skipped, failed int) error {
	r.FinishedAt = time.Now().UTC()
	r.Converted, r.Skipped, r.Failed = converted, skipped, failed
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, skipped = ?, failed = ? WHERE id = ?`,
		r.FinishedAt.Format(timeFormat), converted, skipped, failed, r.ID)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first, each with its pairs.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), converted, skipped, failed
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Converted, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeFormat, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of run %s: %w", r.ID, err)
		}
		if finished != "" {
			if r.FinishedAt, err = time.Parse(timeFormat, finished); err != nil {
				return nil, fmt.Errorf("parsing finished_at of run %s: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		pairs, err := s.pairs(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Pairs = pairs
	}
	return runs, nil
}

func (s *Store) pairs(ctx context.Context, runID string) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT spec, data, COALESCE(output, ''), records, status, COALESCE(error, ''), recorded_at
		FROM pairs WHERE run_id = ? ORDER BY spec, data`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pairs: %w", err)
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		var status, recorded string
		if err := rows.Scan(&p.Spec, &p.Data, &p.Output, &p.Records, &status, &p.Error, &recorded); err != nil {
			return nil, fmt.Errorf("scanning pair: %w", err)
		}
		p.Status = types.PairStatus(status)
		if p.RecordedAt, err = time.Parse(timeFormat, recorded); err != nil {
			return nil, fmt.Errorf("parsing recorded_at of pair %s: %w", p.Data, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
