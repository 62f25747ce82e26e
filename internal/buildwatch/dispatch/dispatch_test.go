package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
)

// quietDispatcher returns a dispatcher that does not stream build output to
// the test's stdout.
func quietDispatcher(root string) *Dispatcher {
	d := New(root)
	d.stdout = io.Discard
	d.stderr = io.Discard
	return d
}

func targetConfig(targets map[string]config.Target) *config.Config {
	return &config.Config{BuildTargets: targets}
}

// TestRun_Success verifies a passing command yields a succeeded outcome.
func TestRun_Success(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"ok": {Command: `sh -c "echo built"`},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "ok", cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !outcome.Succeeded {
		t.Errorf("Succeeded = false, want true (reason: %s)", outcome.FailureReason)
	}
	if outcome.Target != "ok" {
		t.Errorf("Target = %q, want %q", outcome.Target, "ok")
	}
	if outcome.FailureReason != "" {
		t.Errorf("FailureReason = %q, want empty", outcome.FailureReason)
	}
}

// TestRun_FailureCapturesOutputTail verifies a failing command reports the
// process output instead of an error.
func TestRun_FailureCapturesOutputTail(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"bad": {Command: `sh -c "echo boom >&2; exit 1"`},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "bad", cfg)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil: build failures belong in the outcome", err)
	}
	if outcome.Succeeded {
		t.Fatal("Succeeded = true, want false")
	}
	if !strings.Contains(outcome.FailureReason, "boom") {
		t.Errorf("FailureReason = %q, want it to contain process output %q", outcome.FailureReason, "boom")
	}
}

// TestRun_FailureReasonFallsBackToError verifies the spawn error is used
// when the process produced no output.
func TestRun_FailureReasonFallsBackToError(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"missing": {Command: "./no-such-binary-anywhere"},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "missing", cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Succeeded {
		t.Fatal("Succeeded = true, want false")
	}
	if outcome.FailureReason == "" {
		t.Error("FailureReason is empty, want the spawn error")
	}
}

// TestRun_UnknownTargetFailsFast verifies no process is spawned for a
// target name outside the table.
func TestRun_UnknownTargetFailsFast(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"ok": {Command: "true"},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "nope", cfg)
	if !errors.Is(err, errors.ErrUnknownTarget) {
		t.Fatalf("Run() error = %v, want %v", err, errors.ErrUnknownTarget)
	}
	if outcome != nil {
		t.Errorf("outcome = %+v, want nil", outcome)
	}
}

// TestRun_MalformedCommandQuoting verifies an unterminated quote is
// rejected before any process spawns.
func TestRun_MalformedCommandQuoting(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"broken": {Command: `sh -c "unterminated`},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "broken", cfg)
	if err == nil {
		t.Fatalf("Run() error = nil, want quoting error (outcome: %+v)", outcome)
	}
}

// TestRun_CommandRunsInProjectRoot verifies the child process working
// directory is the project root, not the caller's.
func TestRun_CommandRunsInProjectRoot(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"mark": {Command: `sh -c "pwd > marker.txt"`},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "mark", cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !outcome.Succeeded {
		t.Fatalf("Succeeded = false: %s", outcome.FailureReason)
	}
	data, err := os.ReadFile(filepath.Join(root, "marker.txt"))
	if err != nil {
		t.Fatalf("reading marker: %v", err)
	}
	// Resolve symlinks before comparing: t.TempDir may sit behind one.
	gotDir, _ := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	wantDir, _ := filepath.EvalSymlinks(root)
	if gotDir != wantDir {
		t.Errorf("command ran in %q, want %q", gotDir, wantDir)
	}
}

// TestRun_ScansConfiguredArtifacts verifies successful builds report files
// produced under the target's artifacts directory.
func TestRun_ScansConfiguredArtifacts(t *testing.T) {
	root := t.TempDir()
	cfg := targetConfig(map[string]config.Target{
		"pack": {
			Command:      `sh -c "mkdir -p dist && echo payload > dist/app.zip"`,
			ArtifactsDir: "dist",
		},
	})

	outcome, err := quietDispatcher(root).Run(context.Background(), "pack", cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !outcome.Succeeded {
		t.Fatalf("Succeeded = false: %s", outcome.FailureReason)
	}
	want := []string{"dist/app.zip"}
	if diff := cmp.Diff(want, outcome.Artifacts); diff != "" {
		t.Errorf("Artifacts mismatch (-want +got):\n%s", diff)
	}
}

// TestScanArtifacts_Filters verifies the artifact scan keeps distributables
// from this build and skips stale files and compiler intermediates.
func TestScanArtifacts_Filters(t *testing.T) {
	root := t.TempDir()
	release := filepath.Join(root, "release")
	writeArtifact(t, release, "app.AppImage", 0o644)
	writeArtifact(t, release, "myapp", 0o755)
	writeArtifact(t, release, "notes.txt", 0o644)
	writeArtifact(t, filepath.Join(release, "bundle", "deb"), "myapp.deb", 0o644)
	writeArtifact(t, filepath.Join(release, "bundle"), "helper", 0o755)
	writeArtifact(t, filepath.Join(release, "deps"), "tool.exe", 0o644)

	stale := filepath.Join(release, "stale.deb")
	writeArtifact(t, release, "stale.deb", 0o644)
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("aging stale artifact: %v", err)
	}

	got := scanArtifacts(root, config.Target{ArtifactsDir: "release"}, time.Now())
	want := []string{
		"release/app.AppImage",
		"release/bundle/deb/myapp.deb",
		"release/myapp",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scanArtifacts mismatch (-want +got):\n%s", diff)
	}
}

// TestScanArtifacts_MissingDir verifies a nonexistent artifacts directory
// yields an empty list rather than an error.
func TestScanArtifacts_MissingDir(t *testing.T) {
	root := t.TempDir()
	got := scanArtifacts(root, config.Target{ArtifactsDir: "never-built"}, time.Now())
	if len(got) != 0 {
		t.Errorf("scanArtifacts = %v, want empty", got)
	}
}

func writeArtifact(t *testing.T, dir, name string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), mode); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
