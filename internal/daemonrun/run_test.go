package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"anistrm/internal/testsupport"
)

func TestEnsureCurrentLogPointerReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "anistrm-1.log")
	second := filepath.Join(dir, "anistrm-2.log")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "anistrm.log"))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "anistrm-2.log" {
		t.Fatalf("pointer resolves to %q", data)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anistrm.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid != os.Getpid() {
		t.Fatalf("unexpected pid file contents %q", data)
	}
	if err := writePIDFile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}

func TestRunLeavesLiveInstanceFilesAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	if err := os.WriteFile(cfg.PIDPath(), []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("seed pid: %v", err)
	}
	live := filepath.Join(cfg.Paths.LogDir, "anistrm-live.log")
	if err := os.WriteFile(live, []byte("live"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, live); err != nil {
		t.Fatalf("seed pointer: %v", err)
	}

	err = Run(context.Background(), cfg, Options{LogLevel: "error"})
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock contention, got %v", err)
	}

	data, err := os.ReadFile(cfg.PIDPath())
	if err != nil {
		t.Fatalf("pid file removed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "4242" {
		t.Fatalf("pid file overwritten: %q", data)
	}
	pointed, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "anistrm.log"))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(pointed) != "live" {
		t.Fatalf("log pointer moved to %q", pointed)
	}
}
