package daemon

import (
	"os"
	"syscall"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// Process states reported by Probe.
const (
	StateRunning = "running"
	StateStopped = "stopped"
	StateDead    = "dead"
	StateError   = "error"
)

// stopGrace is how long SIGTERM gets before SIGKILL.
const stopGrace = 2 * time.Second

// ProcessState describes the watcher process as seen from its PID file.
type ProcessState struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	State   string `json:"state"`
	Message string `json:"message"`
	PIDFile string `json:"pid_file"`
}

// Probe inspects the PID file and checks process liveness. A stale PID
// file left by a dead process is cleaned up on the way.
func Probe(pidFile string) ProcessState {
	state := ProcessState{State: StateStopped, PIDFile: pidFile}

	pid, err := ReadPIDFromFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			state.Message = "PID file not found"
			return state
		}
		state.State = StateError
		state.Message = err.Error()
		return state
	}
	state.PID = pid

	process, err := os.FindProcess(pid)
	if err != nil {
		state.State = StateError
		state.Message = err.Error()
		return state
	}

	// Signal 0 probes liveness without touching the process.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		state.State = StateDead
		state.Message = "process not running (stale PID file)"
		if removeErr := os.Remove(pidFile); removeErr == nil {
			state.Message = "process not running (cleaned up stale PID file)"
		}
		return state
	}

	state.Running = true
	state.State = StateRunning
	state.Message = "watcher is running"
	return state
}

// StopProcess terminates the watcher: SIGTERM, a short grace period, then
// SIGKILL. Returns ErrWatcherNotRunning when there is nothing to stop, so
// callers can stay idempotent.
func StopProcess(pidFile string) error {
	pid, err := ReadPIDFromFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrWatcherNotRunning, "no PID file")
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, "finding process %d", pid)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		_ = os.Remove(pidFile)
		return errors.Wrapf(errors.ErrWatcherNotRunning, "process %d already gone", pid)
	}

	// Poll for exit instead of a fixed sleep so a prompt shutdown stays
	// prompt.
	alive := true
	deadline := time.Now().Add(stopGrace)
	for time.Now().Before(deadline) {
		if process.Signal(syscall.Signal(0)) != nil {
			alive = false
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if alive {
		log.InfoH2("Watcher still running, sending SIGKILL")
		if err := process.Kill(); err != nil {
			return errors.Wrapf(err, "killing process %d", pid)
		}
	}

	if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing PID file")
	}
	return nil
}
