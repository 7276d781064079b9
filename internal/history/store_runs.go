package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BeginRun records the start of a run in the running state.
func (s *Store) BeginRun(ctx context.Context, id, mode, trigger string, startedAt time.Time) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("begin run: id is required")
	}
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, mode, trigger_source, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, mode, trigger, StatusRunning, formatTime(startedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// FinishRun stores the outcome of a run and stamps its finish time.
func (s *Store) FinishRun(ctx context.Context, id string, outcome Outcome, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	if outcome.Status == "" {
		outcome.Status = StatusSucceeded
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, fetched = ?, created = ?, existing = ?,
            skipped = ?, failed = ?, error_message = ?
        WHERE id = ?`,
		outcome.Status,
		formatTime(finishedAt),
		outcome.Fetched,
		outcome.Created,
		outcome.Existing,
		outcome.Skipped,
		outcome.Failed,
		nullableString(outcome.ErrorMessage),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: not found", id)
	}
	return nil
}

// GetRun fetches a run by id. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastRun returns the most recently started run, or nil when none exist.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// MarkInterrupted flags runs left in the running state by a previous process.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = COALESCE(error_message, ?) WHERE status = ?`,
		StatusInterrupted, formatTime(time.Now()), "daemon stopped before the run finished", StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}
