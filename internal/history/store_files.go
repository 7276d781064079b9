package history

import (
	"context"
	"fmt"
	"time"
)

// RecordFile stores a pointer file created by run. A path recorded earlier
// (for example after the file was deleted and recreated) is reassigned to the
// new run.
func (s *Store) RecordFile(ctx context.Context, runID, title, url, path string, createdAt time.Time) error {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO files (run_id, title, url, path, created_at) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET run_id = excluded.run_id, title = excluded.title,
            url = excluded.url, created_at = excluded.created_at`,
		runID, title, url, path, formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// ListFiles returns the most recently created files, newest first. When runID
// is set only that run's files are returned. limit <= 0 returns all.
func (s *Store) ListFiles(ctx context.Context, runID string, limit int) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
