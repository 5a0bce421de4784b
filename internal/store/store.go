// Package store persists fixture verification runs in SQLite so regressions
// in context extraction can be traced over time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound indicates an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run summarizes one verification run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Branch     string
	Commit     string
	Files      int
	Cases      int
	Failures   int
}

// CaseRecord is the stored outcome of one fixture case. Error is set for
// files that could not be verified; CaseIndex is -1 for those.
type CaseRecord struct {
	Path      string
	Language  string
	CaseIndex int
	Cursor    int
	Expected  []int
	Actual    []int
	Passed    bool
	Error     string
}

// Store reads and writes runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// _foreign_keys applies to every connection the pool opens.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its case records in one transaction. The run's
// ID is generated when empty; counts are derived from records.
func (s *Store) RecordRun(ctx context.Context, run Run, records []CaseRecord) (*Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	files := make(map[string]bool)
	run.Cases, run.Failures = 0, 0
	for _, r := range records {
		files[r.Path] = true
		if r.CaseIndex >= 0 {
			run.Cases++
		}
		if !r.Passed {
			run.Failures++
		}
	}
	run.Files = len(files)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns("id", "started_at", "finished_at", "branch", "commit_hash", "files", "cases", "failures").
		Values(
			run.ID,
			run.StartedAt.UTC().Format(timeLayout),
			run.FinishedAt.UTC().Format(timeLayout),
			run.Branch,
			run.Commit,
			run.Files,
			run.Cases,
			run.Failures,
		).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for _, r := range records {
		expected, err := json.Marshal(orEmpty(r.Expected))
		if err != nil {
			return nil, fmt.Errorf("failed to encode expected rows: %w", err)
		}
		actual, err := json.Marshal(orEmpty(r.Actual))
		if err != nil {
			return nil, fmt.Errorf("failed to encode actual rows: %w", err)
		}

		_, err = sq.Insert("case_results").
			Columns("run_id", "path", "language", "case_index", "cursor", "expected", "actual", "passed", "error").
			Values(run.ID, r.Path, r.Language, r.CaseIndex, r.Cursor, string(expected), string(actual), r.Passed, r.Error).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to insert case result for %s: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	return &run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "id")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns a run and its case records ordered by path and case index.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []CaseRecord, error) {
	row := sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := sq.Select("path", "language", "case_index", "cursor", "expected", "actual", "passed", "error").
		From("case_results").
		Where(sq.Eq{"run_id": id}).
		OrderBy("path", "case_index").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query case results: %w", err)
	}
	defer rows.Close()

	records := []CaseRecord{}
	for rows.Next() {
		var (
			r                CaseRecord
			expected, actual string
		)
		if err := rows.Scan(&r.Path, &r.Language, &r.CaseIndex, &r.Cursor, &expected, &actual, &r.Passed, &r.Error); err != nil {
			return nil, nil, fmt.Errorf("failed to scan case result: %w", err)
		}
		if err := json.Unmarshal([]byte(expected), &r.Expected); err != nil {
			return nil, nil, fmt.Errorf("failed to decode expected rows: %w", err)
		}
		if err := json.Unmarshal([]byte(actual), &r.Actual); err != nil {
			return nil, nil, fmt.Errorf("failed to decode actual rows: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return run, records, nil
}

var runColumns = []string{"id", "started_at", "finished_at", "branch", "commit_hash", "files", "cases", "failures"}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run               Run
		started, finished string
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.Branch, &run.Commit, &run.Files, &run.Cases, &run.Failures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", started, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("invalid finished_at %q: %w", finished, err)
	}
	return &run, nil
}

func orEmpty(rows []int) []int {
	if rows == nil {
		return []int{}
	}
	return rows
}
