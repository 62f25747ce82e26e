package daemon

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
)

// TestProbe_RunningProcess verifies a live PID reports as running.
func TestProbe_RunningProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "watcher.pid")
	if err := WritePIDFile(pidFile, os.Getpid()); err != nil {
		t.Fatalf("WritePIDFile() error = %v", err)
	}

	state := Probe(pidFile)
	if !state.Running {
		t.Errorf("Running = false, want true: %s", state.Message)
	}
	if state.State != StateRunning {
		t.Errorf("State = %q, want %q", state.State, StateRunning)
	}
	if state.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", state.PID, os.Getpid())
	}
}

// TestProbe_NoPIDFile verifies the stopped report.
func TestProbe_NoPIDFile(t *testing.T) {
	state := Probe(filepath.Join(t.TempDir(), "watcher.pid"))
	if state.Running {
		t.Error("Running = true, want false")
	}
	if state.State != StateStopped {
		t.Errorf("State = %q, want %q", state.State, StateStopped)
	}
}

// TestProbe_StalePIDFileCleanedUp verifies a dead PID is detected and the
// file removed.
func TestProbe_StalePIDFileCleanedUp(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("running helper process: %v", err)
	}
	deadPID := cmd.Process.Pid

	pidFile := filepath.Join(t.TempDir(), "watcher.pid")
	if err := WritePIDFile(pidFile, deadPID); err != nil {
		t.Fatalf("WritePIDFile() error = %v", err)
	}

	state := Probe(pidFile)
	if state.Running {
		t.Error("Running = true, want false for a dead PID")
	}
	if state.State != StateDead {
		t.Errorf("State = %q, want %q", state.State, StateDead)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("stale PID file still present (stat err = %v)", err)
	}
}

// TestStopProcess_NotRunning verifies the idempotent sentinel when there
// is no PID file.
func TestStopProcess_NotRunning(t *testing.T) {
	err := StopProcess(filepath.Join(t.TempDir(), "watcher.pid"))
	if !errors.Is(err, errors.ErrWatcherNotRunning) {
		t.Errorf("StopProcess() error = %v, want %v", err, errors.ErrWatcherNotRunning)
	}
}

// TestStopProcess_TerminatesProcess verifies SIGTERM delivery and PID file
// cleanup against a real child process.
func TestStopProcess_TerminatesProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting helper process: %v", err)
	}
	// Reap promptly so the liveness poll sees the exit.
	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	pidFile := filepath.Join(t.TempDir(), "watcher.pid")
	if err := WritePIDFile(pidFile, cmd.Process.Pid); err != nil {
		t.Fatalf("WritePIDFile() error = %v", err)
	}

	if err := StopProcess(pidFile); err != nil {
		t.Fatalf("StopProcess() error = %v", err)
	}

	select {
	case err := <-waited:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("Wait() error = %v, want an exit from a signal", err)
		}
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok || !status.Signaled() {
			t.Errorf("helper did not exit from a signal: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("helper process still running after StopProcess")
	}

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("PID file still present after stop (stat err = %v)", err)
	}
}

// TestLastLines_TailOnly verifies only the trailing lines come back.
func TestLastLines_TailOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "watcher.log")
	content := "one\ntwo\n\nthree\nfour\n"
	if err := os.WriteFile(logFile, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	lines, err := lastLines(logFile, 2)
	if err != nil {
		t.Fatalf("lastLines() error = %v", err)
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Errorf("lastLines() = %v, want [three four]", lines)
	}
}

// TestLastLines_MissingFile verifies the error passthrough.
func TestLastLines_MissingFile(t *testing.T) {
	if _, err := lastLines(filepath.Join(t.TempDir(), "missing.log"), 5); err == nil {
		t.Error("lastLines() error = nil, want open failure")
	}
}
