package ipc

import (
	"time"

	"anistrm/internal/history"
	"anistrm/internal/syncer"
)

// ServiceName is the RPC receiver name registered by the server.
const ServiceName = "Anistrm"

// StopRequest asks the daemon to stop.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// RunInfo is the wire form of a history run.
type RunInfo struct {
	ID           string     `json:"id"`
	Mode         string     `json:"mode"`
	Trigger      string     `json:"trigger"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Fetched      int        `json:"fetched"`
	Created      int        `json:"created"`
	Existing     int        `json:"existing"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	ErrorMessage string     `json:"error,omitempty"`
}

// StatusResponse represents daemon and schedule status information.
type StatusResponse struct {
	Running        bool      `json:"running"`
	PID            int       `json:"pid"`
	StartedAt      time.Time `json:"started_at"`
	LockPath       string    `json:"lock_path"`
	HistoryDBPath  string    `json:"history_db_path"`
	StrmDir        string    `json:"strm_dir"`
	Cron           string    `json:"cron"`
	Timezone       string    `json:"timezone"`
	ScheduleActive bool      `json:"schedule_active"`
	NextRun        time.Time `json:"next_run"`
	PrevRun        time.Time `json:"prev_run"`
	Syncing        bool      `json:"syncing"`
	SyncingMode    string    `json:"syncing_mode,omitempty"`
	LastRun        *RunInfo  `json:"last_run,omitempty"`
	TotalRuns      int       `json:"total_runs"`
	FailedRuns     int       `json:"failed_runs"`
	TotalFiles     int       `json:"total_files"`
}

// SyncRequest triggers a sync; Full selects the seasonal listing scan.
type SyncRequest struct {
	Full bool `json:"full"`
}

// SyncResponse carries the finished run summary.
type SyncResponse struct {
	RunID         string   `json:"run_id"`
	Mode          string   `json:"mode"`
	Fetched       int      `json:"fetched"`
	Created       int      `json:"created"`
	Existing      int      `json:"existing"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	DurationMS    int64    `json:"duration_ms"`
	CreatedTitles []string `json:"created_titles,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the test notification was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// FromRun converts a history run to its wire form.
func FromRun(run *history.Run) *RunInfo {
	if run == nil {
		return nil
	}
	return &RunInfo{
		ID:           run.ID,
		Mode:         run.Mode,
		Trigger:      run.Trigger,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		Fetched:      run.Fetched,
		Created:      run.Created,
		Existing:     run.Existing,
		Skipped:      run.Skipped,
		Failed:       run.Failed,
		ErrorMessage: run.ErrorMessage,
	}
}

// FromSummary converts a syncer summary to its wire form.
func FromSummary(summary syncer.Summary) SyncResponse {
	return SyncResponse{
		RunID:         summary.RunID,
		Mode:          string(summary.Mode),
		Fetched:       summary.Fetched,
		Created:       summary.Created,
		Existing:      summary.Existing,
		Skipped:       summary.Skipped,
		Failed:        summary.Failed,
		DurationMS:    summary.Duration().Milliseconds(),
		CreatedTitles: summary.CreatedTitles,
		Error:         summary.Error,
	}
}
