// Package daemon manages the background watcher process: PID file
// bookkeeping, liveness probes, and log following.
package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// EnsureDirectoriesExist creates the parent directories for the given
// file paths. Empty paths are skipped.
func EnsureDirectoriesExist(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.Wrapf(err, "creating directory %s", dir)
		}
	}
	return nil
}

// WritePIDFile records the process ID.
func WritePIDFile(pidFile string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(pidFile), 0o750); err != nil {
		return errors.Wrap(err, "creating PID file directory")
	}
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)+"\n"), 0o600); err != nil {
		return errors.Wrap(err, "writing PID file")
	}
	log.DebugH2("PID file written: %s", pidFile)
	return nil
}

// ReadPIDFromFile reads the process ID back. A missing file returns
// os.ErrNotExist; empty or non-numeric content is an error.
func ReadPIDFromFile(pidFile string) (int, error) {
	//nolint:gosec // G304: the PID file path is application-constructed
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, errors.New("PID file is empty")
	}
	pid, err := strconv.Atoi(content)
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID file content")
	}
	return pid, nil
}
