package syncer

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the catalog strategy for a run.
type Mode string

const (
	// ModeIncremental reads the RSS feed of recent releases.
	ModeIncremental Mode = "incremental"
	// ModeFull scans the listing for the current and previous season.
	ModeFull Mode = "full"
)

// ParseMode accepts "incremental", "full" and the empty string (incremental).
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeIncremental:
		return ModeIncremental, nil
	case ModeFull:
		return ModeFull, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q", value)
	}
}

// ModeFor returns ModeFull when full is set.
func ModeFor(full bool) Mode {
	if full {
		return ModeFull
	}
	return ModeIncremental
}

// Trigger records what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerStartup  Trigger = "startup"
	TriggerManual   Trigger = "manual"
)

// Request describes one sync invocation.
type Request struct {
	Mode    Mode
	Trigger Trigger
}

// Summary reports what a run did.
type Summary struct {
	RunID         string    `json:"run_id"`
	Mode          Mode      `json:"mode"`
	Trigger       Trigger   `json:"trigger"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Fetched       int       `json:"fetched"`
	Created       int       `json:"created"`
	Existing      int       `json:"existing"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	CreatedTitles []string  `json:"created_titles,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Duration returns the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
