package testsupport

import (
	"context"
	"testing"
	"time"

	"anistrm/internal/config"
	"anistrm/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun starts a run for tests using the provided store.
func BeginRun(t testing.TB, store *history.Store, id, mode string, startedAt time.Time) *history.Run {
	t.Helper()

	run, err := store.BeginRun(context.Background(), id, mode, "manual", startedAt)
	if err != nil {
		t.Fatalf("store.BeginRun: %v", err)
	}
	return run
}
