package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"anistrm/internal/history"
	"anistrm/internal/testsupport"
)

func TestOpenCreatesSchemaAndRoundTripsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if store.Path() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected db path %q", store.Path())
	}

	started := time.Date(2024, 10, 5, 22, 0, 0, 0, time.UTC)
	run := testsupport.BeginRun(t, store, "run-1", "incremental", started)
	if run.Status != history.StatusRunning {
		t.Fatalf("expected running, got %s", run.Status)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("unexpected start %s", run.StartedAt)
	}

	outcome := history.Outcome{Status: history.StatusSucceeded, Fetched: 10, Created: 2, Existing: 7, Skipped: 1}
	if err := store.FinishRun(ctx, "run-1", outcome, started.Add(5*time.Second)); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != history.StatusSucceeded || got.Created != 2 || got.Existing != 7 || got.Fetched != 10 {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.Duration() != 5*time.Second {
		t.Fatalf("unexpected duration %s", got.Duration())
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.BeginRun(t, store, "run-1", "full", time.Now())
	_ = store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	last, err := reopened.LastRun(context.Background())
	if err != nil || last == nil || last.ID != "run-1" {
		t.Fatalf("expected persisted run, got %+v (%v)", last, err)
	}
}

func TestFinishUnknownRunFails(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.FinishRun(context.Background(), "missing", history.Outcome{}, time.Now()); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if _, err := store.BeginRun(context.Background(), " ", "full", "manual", time.Now()); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	testsupport.BeginRun(t, store, "a", "incremental", base)
	testsupport.BeginRun(t, store, "b", "incremental", base.Add(time.Minute))
	testsupport.BeginRun(t, store, "c", "full", base.Add(time.Minute+500*time.Millisecond))

	runs, err := store.ListRuns(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %v", ids(runs))
	}
	all, _ := store.ListRuns(context.Background(), 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestRecordFileReassignsPath(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()
	testsupport.BeginRun(t, store, "r1", "incremental", now)
	testsupport.BeginRun(t, store, "r2", "incremental", now.Add(time.Second))

	if err := store.RecordFile(ctx, "r1", "Show - 01", "https://x/1.mp4?d=true", "/strm/Show - 01.strm", now); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}
	if err := store.RecordFile(ctx, "r2", "Show - 01", "https://x/1.mp4?d=true", "/strm/Show - 01.strm", now.Add(time.Second)); err != nil {
		t.Fatalf("RecordFile again: %v", err)
	}
	if err := store.RecordFile(ctx, "r2", "Show - 02", "https://x/2.mp4?d=true", "/strm/Show - 02.strm", now.Add(2*time.Second)); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}

	files, err := store.ListFiles(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Title != "Show - 02" {
		t.Fatalf("expected newest first, got %q", files[0].Title)
	}
	r1Files, _ := store.ListFiles(ctx, "r1", 0)
	if len(r1Files) != 0 {
		t.Fatalf("expected path reassigned away from r1, got %d", len(r1Files))
	}
	r2Files, _ := store.ListFiles(ctx, "r2", 1)
	if len(r2Files) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(r2Files))
	}
}

func TestStatsAndPrune(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -400)
	recent := time.Now().Add(-time.Hour)

	testsupport.BeginRun(t, store, "old", "full", old)
	if err := store.FinishRun(ctx, "old", history.Outcome{Status: history.StatusFailed, ErrorMessage: "boom"}, old); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := store.RecordFile(ctx, "old", "Old", "u", "/strm/Old.strm", old); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}
	testsupport.BeginRun(t, store, "new", "incremental", recent)
	if err := store.RecordFile(ctx, "new", "New", "u", "/strm/New.strm", recent); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Runs != 2 || stats.FailedRuns != 1 || stats.Files != 2 || stats.LastCreation == nil {
		t.Fatalf("unexpected stats %+v", stats)
	}

	removed, err := store.Prune(ctx, time.Now().AddDate(0, 0, -180))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 run pruned, got %d", removed)
	}
	files, _ := store.ListFiles(ctx, "", 0)
	if len(files) != 1 || files[0].RunID != "new" {
		t.Fatalf("expected cascaded file delete, got %+v", files)
	}
}

func TestPruneCascadesOnEveryPooledConnection(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -400)

	testsupport.BeginRun(t, store, "r1", "full", old)
	if err := store.FinishRun(ctx, "r1", history.Outcome{Status: history.StatusSucceeded, Created: 1}, old); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := store.RecordFile(ctx, "r1", "Show", "u", "/strm/Show.strm", old); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}

	// Pin the connection that opened the store so Prune has to dial another.
	held, err := store.DB().Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()
	var fk int
	if err := held.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Fatalf("foreign_keys on held connection = %d (%v)", fk, err)
	}

	removed, err := store.Prune(ctx, time.Now().AddDate(0, 0, -180))
	if err != nil || removed != 1 {
		t.Fatalf("Prune: removed=%d err=%v", removed, err)
	}

	var orphans int
	if err := held.QueryRowContext(ctx, "SELECT COUNT(1) FROM files").Scan(&orphans); err != nil {
		t.Fatalf("count files: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("file rows survived prune: %d", orphans)
	}
	stats, err := store.Stats(ctx)
	if err != nil || stats.Files != 0 {
		t.Fatalf("unexpected stats %+v (%v)", stats, err)
	}
}

func TestMarkInterrupted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.BeginRun(t, store, "stuck", "full", time.Now())

	n, err := store.MarkInterrupted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("MarkInterrupted: %d %v", n, err)
	}
	run, _ := store.GetRun(ctx, "stuck")
	if run.Status != history.StatusInterrupted || run.FinishedAt == nil || run.ErrorMessage == "" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestOpenRecordsAppliedMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	var version int
	if err := store.DB().QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version < 1 {
		t.Fatalf("expected migrations recorded, got version %d", version)
	}
	var tables int
	if err := store.DB().QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name IN ('runs', 'files')`).Scan(&tables); err != nil || tables != 2 {
		t.Fatalf("expected runs and files tables, got %d (%v)", tables, err)
	}
}

func TestSchemaMismatchIsReported(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if _, err := store.DB().Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	_, err := history.Open(cfg)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func ids(runs []*history.Run) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}
