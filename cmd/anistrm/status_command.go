package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"anistrm/internal/config"
	"anistrm/internal/history"
	"anistrm/internal/ipc"
	"anistrm/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, schedule and last run status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var status *ipc.StatusResponse
			if client, err := ctx.dialClient(); err == nil {
				status, err = client.Status()
				client.Close()
				if err != nil {
					return err
				}
			}

			printer := newStatusPrinter(cmd.OutOrStdout())
			printer.section("Daemon", daemonLines(cmd, cfg, status)...)
			if skipChecks {
				return nil
			}
			printer.section("Checks", checkLines(preflight.RunAll(cmd.Context(), cfg))...)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipChecks, "no-checks", false, "Skip filesystem and network checks")
	return cmd
}

func daemonLines(cmd *cobra.Command, cfg *config.Config, status *ipc.StatusResponse) []statusLine {
	if status == nil || !status.Running {
		return []statusLine{
			{"Daemon", healthDegraded, "Not running"},
			{"Schedule", healthNeutral, fmt.Sprintf("%q (inactive)", cfg.Schedule.Cron)},
			lastRunLine(localLastRun(cmd, cfg)),
		}
	}

	lines := []statusLine{
		{"Daemon", healthGood, fmt.Sprintf("Running (pid %d, up %s)", status.PID, formatUptime(status.StartedAt))},
	}
	if status.ScheduleActive {
		detail := fmt.Sprintf("%q in %s", status.Cron, status.Timezone)
		if !status.NextRun.IsZero() {
			detail += ", next " + formatTimestamp(status.NextRun)
		}
		lines = append(lines, statusLine{"Schedule", healthGood, detail})
	} else {
		lines = append(lines, statusLine{"Schedule", healthDegraded, fmt.Sprintf("%q not active (disabled or invalid)", status.Cron)})
	}
	syncDetail := "Idle"
	if status.Syncing {
		syncDetail = status.SyncingMode + " sync in progress"
	}
	return append(lines,
		statusLine{"Sync", healthNeutral, syncDetail},
		lastRunLine(status.LastRun),
		statusLine{"History", healthNeutral, fmt.Sprintf("%d runs (%d failed), %d files", status.TotalRuns, status.FailedRuns, status.TotalFiles)},
	)
}

func checkLines(results []preflight.Result) []statusLine {
	lines := make([]statusLine, 0, len(results))
	for _, result := range results {
		lines = append(lines, statusLine{result.Name, checkHealth(result), result.Detail})
	}
	return lines
}

func localLastRun(cmd *cobra.Command, cfg *config.Config) *ipc.RunInfo {
	store, err := history.Open(cfg)
	if err != nil {
		return nil
	}
	defer store.Close()
	run, err := store.LastRun(cmd.Context())
	if err != nil {
		return nil
	}
	return ipc.FromRun(run)
}

func lastRunLine(run *ipc.RunInfo) statusLine {
	if run == nil {
		return statusLine{"Last run", healthNeutral, "None"}
	}
	status := history.Status(run.Status)
	detail := fmt.Sprintf("%s %s %s, created %d", run.Mode, run.Status, formatTimestamp(run.StartedAt), run.Created)
	if status != history.StatusSucceeded && status != history.StatusRunning {
		if msg := strings.TrimSpace(run.ErrorMessage); msg != "" {
			detail += ": " + msg
		}
	}
	return statusLine{"Last run", runHealth(status), detail}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatUptime(started time.Time) string {
	if started.IsZero() {
		return "unknown"
	}
	return time.Since(started).Round(time.Second).String()
}
