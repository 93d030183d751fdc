package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository handles database operations for run tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a run record and sets its ID
func (r *Repository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO produced_runs (source, status, days, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.Source, run.Status, run.Days, run.StartedAt,
	).Scan(&run.ID)
}

// UpdateRun stores a run's final state
func (r *Repository) UpdateRun(ctx context.Context, run *Run) error {
	query := `
		UPDATE produced_runs
		SET status = $1, days = $2, first_date = $3, last_date = $4,
		    completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.Days, run.FirstDate, run.LastDate,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

const selectRun = `
	SELECT id, source, status, days, first_date, last_date,
	       started_at, completed_at, error_message
	FROM produced_runs
`

// GetRun retrieves a run by ID; nil when absent
func (r *Repository) GetRun(ctx context.Context, id int64) (*Run, error) {
	run := &Run{}
	err := scanRun(r.db.QueryRowContext(ctx, selectRun+` WHERE id = $1`, id), run)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := scanRun(rows, run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// RunStats summarises runs started since a point in time
type RunStats struct {
	Runs            int64      `json:"runs"`
	Failed          int64      `json:"failed"`
	DaysProcessed   int64      `json:"days_processed"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}

// GetRunStats retrieves statistics for runs started since the given time
func (r *Repository) GetRunStats(ctx context.Context, since time.Time) (*RunStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = $1 THEN 1 END),
			COALESCE(SUM(days), 0),
			MAX(completed_at)
		FROM produced_runs
		WHERE started_at >= $2
	`

	stats := &RunStats{}
	err := r.db.QueryRowContext(ctx, query, StatusFailed, since).Scan(
		&stats.Runs, &stats.Failed, &stats.DaysProcessed, &stats.LastCompletedAt,
	)
	return stats, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner, run *Run) error {
	return s.Scan(
		&run.ID, &run.Source, &run.Status, &run.Days, &run.FirstDate, &run.LastDate,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)
}
