package daemon

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tail "github.com/hpcloud/tail"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// tailChunk bounds how much of the log file the recent-lines view reads.
const tailChunk = 64 * 1024

// ShowRecentLogs prints the last n nonblank lines of the log file, if
// there are any.
func ShowRecentLogs(logFile string, n int) {
	lines, err := lastLines(logFile, n)
	if err != nil || len(lines) == 0 {
		return
	}
	log.Info("Recent activity (last %d lines):", len(lines))
	for _, line := range lines {
		log.InfoH2("%s", line)
	}
}

// FollowLogs streams new log lines until interrupted.
func FollowLogs(logFile string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// ReOpen and Poll keep the tail attached across log rotations.
	t, err := tail.TailFile(logFile, tail.Config{
		ReOpen:    true,
		Follow:    true,
		MustExist: false,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
	})
	if err != nil {
		return errors.Wrap(err, "tailing log file")
	}
	defer t.Cleanup()

	ShowRecentLogs(logFile, 5)

	for {
		select {
		case <-sigChan:
			fmt.Println()
			log.Info("Stopped following logs")
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return errors.New("log tail channel closed")
			}
			if line == nil || strings.TrimSpace(line.Text) == "" {
				continue
			}
			fmt.Println(line.Text)
		}
	}
}

// lastLines reads up to n nonblank lines from the end of a file.
func lastLines(path string, n int) ([]string, error) {
	//nolint:gosec // G304: the log file path is application-constructed
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	offset := info.Size() - tailChunk
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
