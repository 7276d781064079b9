package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"anistrm/internal/daemon"
	"anistrm/internal/daemonctl"
	"anistrm/internal/ipc"
	"anistrm/internal/logging"
	"anistrm/internal/testsupport"
)

func startDaemon(t *testing.T) (string, *daemon.Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	// Unix socket paths are length-limited; keep the socket near the root of the temp dir.
	cfg.Paths.StateDir = t.TempDir()
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon Start: %v", err)
	}
	t.Cleanup(d.Stop)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping daemonctl test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	return socket, d
}

func TestProcessInfoWithoutDaemon(t *testing.T) {
	running, pid, err := daemonctl.ProcessInfo(filepath.Join(t.TempDir(), "none.sock"))
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if running || pid != 0 {
		t.Fatalf("expected no daemon, got running=%v pid=%d", running, pid)
	}
}

func TestProcessInfoReportsRunningDaemon(t *testing.T) {
	socket, _ := startDaemon(t)

	running, pid, err := daemonctl.ProcessInfo(socket)
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if !running || pid != os.Getpid() {
		t.Fatalf("expected running daemon with pid %d, got running=%v pid=%d", os.Getpid(), running, pid)
	}
}

func TestEnsureStartedDetectsRunningDaemon(t *testing.T) {
	socket, _ := startDaemon(t)

	result, err := daemonctl.EnsureStarted(socket, "/nonexistent/anistrm", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning {
		t.Fatalf("expected already running, got %+v", result)
	}
}

func TestStopAndTerminateGracefulStop(t *testing.T) {
	socket, d := startDaemon(t)

	result, err := daemonctl.StopAndTerminate(socket, nil, 2*time.Second)
	if err != nil {
		t.Fatalf("StopAndTerminate: %v", err)
	}
	if !result.StopAcknowledged || result.ForcedKill {
		t.Fatalf("expected graceful stop, got %+v", result)
	}
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("expected daemon Done to close")
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	_, err := daemonctl.StopAndTerminate(filepath.Join(t.TempDir(), "none.sock"), nil, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForShutdownWithoutDaemon(t *testing.T) {
	if err := daemonctl.WaitForShutdown(filepath.Join(t.TempDir(), "none.sock"), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "anistrm.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill the test process")
	}
}

func TestForceKillWithoutPID(t *testing.T) {
	if _, err := daemonctl.ForceKillProcess(filepath.Join(t.TempDir(), "missing.pid"), "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestForceKillFallsBackWhenPIDFileIsGarbage(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "anistrm.pid")
	if err := os.WriteFile(pidPath, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	_, err := daemonctl.ForceKillProcess(pidPath, "", os.Getpid())
	if err == nil || !strings.Contains(err.Error(), "refusing to kill current process") {
		t.Fatalf("expected the fallback pid to be used, got %v", err)
	}
}

func TestLaunchRejectsEmptyExecutable(t *testing.T) {
	if err := daemonctl.Launch(" ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestForceKillRemovesStalePIDFile(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run helper process: %v", err)
	}
	pidPath := filepath.Join(t.TempDir(), "anistrm.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(cmd.ProcessState.Pid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}

	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected error for an exited process")
	}
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale pid file to be removed, stat err=%v", err)
	}
}

func TestForceKillRefusesForeignProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	pidPath := filepath.Join(t.TempDir(), "anistrm.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}

	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill a non-anistrm process")
	}
	if err := cmd.Process.Signal(syscall.Signal(0)); err != nil {
		t.Fatalf("expected helper process to survive: %v", err)
	}
}
