package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// RunRecord summarizes one completed analysis run.
type RunRecord struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Level         int
	FilesAnalyzed int
	IssuesFound   int
}

// RunStore reads and writes analysis run records.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore backed by db.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RecordRun inserts or replaces the record for rec.ID.
func (s *RunStore) RecordRun(rec *RunRecord) error {
	_, err := sq.Insert("runs").
		Columns("run_id", "started_at", "finished_at", "level", "files_analyzed", "issues_found").
		Values(
			rec.ID,
			rec.StartedAt.UTC().Format(time.RFC3339),
			rec.FinishedAt.UTC().Format(time.RFC3339),
			rec.Level,
			rec.FilesAnalyzed,
			rec.IssuesFound,
		).
		Options("OR REPLACE").
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.ID, err)
	}
	return nil
}

// Run returns the record for id, or nil when no such run exists.
func (s *RunStore) Run(id string) (*RunRecord, error) {
	row := sq.Select("run_id", "started_at", "finished_at", "level", "files_analyzed", "issues_found").
		From("runs").
		Where(sq.Eq{"run_id": id}).
		RunWith(s.db).
		QueryRow()
	return scanRun(row)
}

// LastRun returns the most recently finished run, or nil when the
// database holds no runs.
func (s *RunStore) LastRun() (*RunRecord, error) {
	row := sq.Select("run_id", "started_at", "finished_at", "level", "files_analyzed", "issues_found").
		From("runs").
		OrderBy("finished_at DESC", "run_id DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow()
	return scanRun(row)
}

func scanRun(row sq.RowScanner) (*RunRecord, error) {
	var rec RunRecord
	var startedAt, finishedAt string

	err := row.Scan(&rec.ID, &startedAt, &finishedAt, &rec.Level, &rec.FilesAnalyzed, &rec.IssuesFound)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}

	if rec.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %s: %w", rec.ID, err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at for run %s: %w", rec.ID, err)
	}

	return &rec, nil
}
