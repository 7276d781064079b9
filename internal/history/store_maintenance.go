package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Stats aggregates run and file counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM runs`,
		StatusFailed,
	).Scan(&stats.Runs, &stats.FailedRuns)
	if err != nil {
		return Stats{}, fmt.Errorf("run stats: %w", err)
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), MAX(created_at) FROM files`).Scan(&stats.Files, &last); err != nil {
		return Stats{}, fmt.Errorf("file stats: %w", err)
	}
	if last.Valid {
		if t, err := parseTimeString(last.String); err == nil {
			stats.LastCreation = &t
		}
	}
	return stats, nil
}

// Prune removes finished runs started before cutoff together with their file
// records. It returns the number of runs removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM runs WHERE started_at < ? AND status != ?`,
		formatTime(cutoff), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
