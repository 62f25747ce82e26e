package cmd

import (
	"io"
	"testing"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

func buildConfig() *config.Config {
	return &config.Config{
		AutoTrigger: config.AutoTrigger{
			Enabled:        true,
			WatchPaths:     []string{"src/**"},
			FileExtensions: []string{".ts"},
			BuildCooldown:  1,
			BuildTarget:    "ok",
		},
		BuildTargets: map[string]config.Target{
			"ok":     {Command: "true"},
			"broken": {Command: "sh -c 'echo boom >&2; exit 1'"},
		},
	}
}

// quietly silences command output for the duration of a test.
func quietly(t *testing.T) {
	t.Helper()
	restore := log.SetOutput(io.Discard, io.Discard)
	t.Cleanup(restore)
}

func TestRunBuildOnce_Success(t *testing.T) {
	quietly(t)
	root := t.TempDir()

	outcome, err := runBuildOnce(root, "ok", buildConfig())
	if err != nil {
		t.Fatalf("runBuildOnce() = %v", err)
	}
	if !outcome.Succeeded {
		t.Errorf("outcome.Succeeded = false, want true: %s", outcome.FailureReason)
	}
	if outcome.Target != "ok" {
		t.Errorf("outcome.Target = %q, want %q", outcome.Target, "ok")
	}
}

func TestRunBuildOnce_FailureIsAnOutcome(t *testing.T) {
	quietly(t)
	root := t.TempDir()

	outcome, err := runBuildOnce(root, "broken", buildConfig())
	if err != nil {
		t.Fatalf("runBuildOnce() = %v, want outcome instead", err)
	}
	if outcome.Succeeded {
		t.Error("outcome.Succeeded = true for a failing command")
	}
	if outcome.FailureReason == "" {
		t.Error("outcome.FailureReason empty, want captured output")
	}
}

func TestRunBuildOnce_UnknownTarget(t *testing.T) {
	quietly(t)
	root := t.TempDir()

	outcome, err := runBuildOnce(root, "ghost", buildConfig())
	if !errors.Is(err, errors.ErrUnknownTarget) {
		t.Fatalf("runBuildOnce() = %v, want ErrUnknownTarget", err)
	}
	if outcome != nil {
		t.Errorf("outcome = %+v, want nil for unknown target", outcome)
	}
}

func TestBuildCommand_Flags(t *testing.T) {
	flag := buildCmd.Flags().Lookup("target")
	if flag == nil {
		t.Fatal("build command should have --target flag")
	}
	if flag.Shorthand != "t" {
		t.Errorf("--target shorthand = %q, want %q", flag.Shorthand, "t")
	}
}
