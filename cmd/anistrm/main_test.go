package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"anistrm/internal/ipc"
)

func TestStatusReportsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--no-checks"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, `"0 0 1 1 *" in UTC`)
	requireContains(t, out, "Idle")
	requireContains(t, out, "None")
}

func TestStatusIncludesChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Checks")
	requireContains(t, out, "[OK] Reachable (1 items)")
	requireContains(t, out, "read/write ok")
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--no-checks"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "(inactive)")
}

func TestSyncThroughDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sync"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "(incremental)")
	requireContains(t, out, "created 1")
	requireContains(t, out, "+ CLI Show - 01")

	data, err := os.ReadFile(filepath.Join(env.cfg.Paths.StrmDir, "CLI Show - 01.strm"))
	if err != nil {
		t.Fatalf("read strm file: %v", err)
	}
	requireContains(t, string(data), "openani.an-i.workers.dev/2024-10/CLI%20Show%20-%2001.mp4?d=true")

	out, _, err = runCLI(t, []string{"sync", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sync --json: %v", err)
	}
	var resp ipc.SyncResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode sync json: %v\n%s", err, out)
	}
	if resp.Created != 0 || resp.Existing != 1 {
		t.Fatalf("expected second run to find the existing file, got %+v", resp)
	}
}

func TestSyncFallsBackToLocalRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sync"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Daemon not reachable; running sync locally")
	requireContains(t, out, "created 1")

	runs, err := env.store.ListRuns(t.Context(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Trigger != "manual" {
		t.Fatalf("expected one manual run recorded, got %+v", runs)
	}
}

func TestSyncReportsFeedFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.catalog.SetFeedStatus(500)

	out, _, err := runCLI(t, []string{"sync", "--local"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatalf("expected sync to fail, output:\n%s", out)
	}
	requireContains(t, err.Error(), "sync failed")
}

func TestHistoryListsRunsAndFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, []string{"sync"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("sync: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "incremental")
	requireContains(t, out, "succeeded")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []map[string]any
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history json: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0]["created"] != float64(1) {
		t.Fatalf("unexpected runs json: %v", runs)
	}

	out, _, err = runCLI(t, []string{"history", "--files"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history --files: %v", err)
	}
	requireContains(t, out, "CLI Show - 01")
}

func TestSeasonsPrintsWindow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"seasons", "--at", "2024-11-15"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("seasons: %v", err)
	}
	requireContains(t, out, "2024-10")
	requireContains(t, out, "2024-7")
	requireContains(t, out, env.catalog.URL()+"/2024-7/")

	if _, _, err := runCLI(t, []string{"seasons", "--at", "November"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected invalid --at to fail")
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")

	out, _, err = runCLI(t, []string{"test-notify"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("local test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestStopCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")

	select {
	case <-env.daemon.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected daemon to stop")
	}

	out, _, err = runCLI(t, []string{"stop"}, env.missingSocket(), env.configPath)
	if err != nil {
		t.Fatalf("stop without daemon: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestLogsPrintsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log output")

	logPath := filepath.Join(env.cfg.Paths.LogDir, "anistrm.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err = runCLI(t, []string{"logs", "-n", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}
