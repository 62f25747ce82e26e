// Package dispatch resolves build target names to configured commands and
// executes them as child processes in the project root.
package dispatch

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// DefaultBuildTimeout bounds a single build invocation.
const DefaultBuildTimeout = 30 * time.Minute

// failureTailBytes is how much trailing process output is kept for the
// failure reason.
const failureTailBytes = 4096

// Outcome is the structured result of one build invocation. It is produced
// here, handed to the version control and notification steps, and then
// discarded.
type Outcome struct {
	Target        string        `json:"target"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Succeeded     bool          `json:"succeeded"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Artifacts     []string      `json:"artifacts,omitempty"`
}

// Dispatcher executes named build targets.
type Dispatcher struct {
	root    string
	timeout time.Duration

	// stdout/stderr receive streamed build output in addition to the
	// captured tail; swapped in tests.
	stdout io.Writer
	stderr io.Writer
}

// New returns a dispatcher rooted at the project directory.
func New(root string) *Dispatcher {
	return &Dispatcher{
		root:    root,
		timeout: DefaultBuildTimeout,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// Run resolves targetName in the config's target table and executes its
// command. An unknown target fails fast with ErrUnknownTarget before any
// process spawns. A failing build is not an error: it is reported inside
// the Outcome with the tail of the process output as the failure reason.
func (d *Dispatcher) Run(ctx context.Context, targetName string, cfg *config.Config) (*Outcome, error) {
	target, ok := cfg.ResolveTarget(targetName)
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownTarget, "%q", targetName)
	}

	argv, err := shellquote.Split(target.Command)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing command for target %q", targetName)
	}
	if len(argv) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "target %q has an empty command", targetName)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	tail := newTailBuffer(failureTailBytes)

	//nolint:gosec // G204: executing configured build commands is the purpose here
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = d.root
	cmd.Stdout = io.MultiWriter(tail, d.stdout)
	cmd.Stderr = io.MultiWriter(tail, d.stderr)

	log.InfoH2("Running target %q: %s", targetName, target.Command)

	startedAt := time.Now()
	runErr := cmd.Run()

	outcome := &Outcome{
		Target:    targetName,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}

	if runErr != nil {
		outcome.FailureReason = failureReason(runErr, tail)
		log.Error("Target %q failed after %s: %s", targetName, outcome.Duration.Round(time.Millisecond), outcome.FailureReason)
		return outcome, nil
	}

	outcome.Succeeded = true
	outcome.Artifacts = scanArtifacts(d.root, target, startedAt)
	log.InfoH2("Target %q finished in %s", targetName, outcome.Duration.Round(time.Millisecond))
	for _, artifact := range outcome.Artifacts {
		log.InfoH3("artifact: %s", artifact)
	}
	return outcome, nil
}

// failureReason prefers the trailing process output and falls back to the
// spawn or exit error when the process produced nothing.
func failureReason(err error, tail *tailBuffer) string {
	if output := strings.TrimSpace(tail.String()); output != "" {
		return output
	}
	return err.Error()
}

// tailBuffer keeps the last capacity bytes written so long build logs do
// not accumulate in memory while the failure tail stays available.
type tailBuffer struct {
	mu       sync.Mutex
	buf      []byte
	capacity int
}

func newTailBuffer(capacity int) *tailBuffer {
	return &tailBuffer{capacity: capacity}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.capacity {
		b.buf = append(b.buf[:0], b.buf[len(b.buf)-b.capacity:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
