package cmd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAvailableTargets_FromProjectConfig(t *testing.T) {
	root := t.TempDir()
	writeProjectConfig(t, root, true)
	chdir(t, root)

	targets, err := availableTargets()
	if err != nil {
		t.Fatalf("availableTargets() = %v", err)
	}
	if diff := cmp.Diff([]string{"ok"}, targets); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestAvailableTargets_NoConfig(t *testing.T) {
	chdir(t, t.TempDir())

	targets, err := availableTargets()
	if err != nil {
		t.Fatalf("availableTargets() = %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("targets = %v, want none without a config", targets)
	}
}

func TestCompletionCommand_ValidArgs(t *testing.T) {
	want := []string{"bash", "zsh", "fish", "powershell"}
	if diff := cmp.Diff(want, completionCmd.ValidArgs); diff != "" {
		t.Errorf("ValidArgs mismatch (-want +got):\n%s", diff)
	}
}
