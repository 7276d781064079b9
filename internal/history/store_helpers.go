package history

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = "id, mode, trigger_source, status, started_at, finished_at, fetched, created, existing, skipped, failed, error_message"

const fileColumns = "id, run_id, title, url, path, created_at"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface{ Scan(dest ...any) error }

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run         Run
		statusStr   string
		startedRaw  string
		finishedRaw sql.NullString
		errMessage  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Mode,
		&run.Trigger,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&run.Fetched,
		&run.Created,
		&run.Existing,
		&run.Skipped,
		&run.Failed,
		&errMessage,
	); err != nil {
		return nil, err
	}
	run.Status = Status(statusStr)
	run.ErrorMessage = errMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanFile(scanner rowScanner) (*File, error) {
	var (
		file       File
		createdRaw string
	)
	if err := scanner.Scan(&file.ID, &file.RunID, &file.Title, &file.URL, &file.Path, &createdRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		file.CreatedAt = created
	}
	return &file, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
