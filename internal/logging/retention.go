package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogPointerName is the link in log_dir that always names the newest daemon log.
const LogPointerName = "anistrm.log"

// rotatedLogPattern matches per-start daemon logs and the CLI log.
const rotatedLogPattern = "anistrm-*.log"

// PruneLogs removes logs in logDir that match rotatedLogPattern and were last
// written more than retentionDays ago. Paths in keep survive regardless, and
// retentionDays <= 0 disables pruning. It returns the number of files removed.
func PruneLogs(logger *slog.Logger, logDir string, retentionDays int, keep ...string) int {
	logDir = strings.TrimSpace(logDir)
	if retentionDays <= 0 || logDir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(logDir, rotatedLogPattern))
	if err != nil {
		return 0
	}

	kept := make(map[string]bool, len(keep))
	for _, path := range keep {
		kept[filepath.Clean(path)] = true
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range matches {
		if kept[filepath.Clean(path)] {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("pruned old logs",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
