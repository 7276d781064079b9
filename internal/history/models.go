package history

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Run is one recorded sync execution.
type Run struct {
	ID           string     `json:"id"`
	Mode         string     `json:"mode"`
	Trigger      string     `json:"trigger"`
	Status       Status     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Fetched      int        `json:"fetched"`
	Created      int        `json:"created"`
	Existing     int        `json:"existing"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	ErrorMessage string     `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the counters written by FinishRun.
type Outcome struct {
	Status       Status
	Fetched      int
	Created      int
	Existing     int
	Skipped      int
	Failed       int
	ErrorMessage string
}

// File is a pointer file created by a run.
type File struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates the whole history.
type Stats struct {
	Runs         int        `json:"runs"`
	FailedRuns   int        `json:"failed_runs"`
	Files        int        `json:"files"`
	LastCreation *time.Time `json:"last_creation,omitempty"`
}
