package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

const minimalConfig = `
autoTrigger:
  enabled: true
  watchPaths: ["src/**"]
  ignorePaths: ["**/node_modules/**"]
  fileExtensions: [".ts"]
  buildCooldown: 5
  buildTarget: web
buildTargets:
  web:
    command: "npm run build"
    description: "web bundle"
notifications:
  enabled: true
  showBuildComplete: true
  showBuildError: true
github:
  autoCommit: false
  autoPush: false
  commitMessage: "build {timestamp}"
`

// TestLoad_Valid tests that a well-formed config round-trips into the model
func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := AutoTrigger{
		Enabled:        true,
		WatchPaths:     []string{"src/**"},
		IgnorePaths:    []string{"**/node_modules/**"},
		FileExtensions: []string{".ts"},
		BuildCooldown:  5,
		BuildTarget:    "web",
	}
	if diff := cmp.Diff(want, cfg.AutoTrigger); diff != "" {
		t.Errorf("AutoTrigger mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Cooldown(); got != 5*time.Second {
		t.Errorf("Cooldown() = %v, want %v", got, 5*time.Second)
	}
	if _, ok := cfg.ResolveTarget("web"); !ok {
		t.Error("ResolveTarget(web) not found")
	}
	if _, ok := cfg.ResolveTarget("nope"); ok {
		t.Error("ResolveTarget(nope) unexpectedly found")
	}
}

// TestLoad_NotFound tests the missing-file error class
func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, errors.ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
	}
}

// TestLoad_Malformed tests the unparseable-file error class
func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "autoTrigger: [not: a map\n")
	_, err := Load(path)
	if !errors.Is(err, errors.ErrConfigMalformed) {
		t.Errorf("Load() error = %v, want ErrConfigMalformed", err)
	}
}

// TestLoad_Invalid tests each validation rule
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unresolved default target",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**"], fileExtensions: [".ts"], buildCooldown: 5, buildTarget: ghost}
buildTargets:
  web: {command: "npm run build", description: ""}
`,
		},
		{
			name: "empty watch glob",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**", ""], fileExtensions: [".ts"], buildCooldown: 5, buildTarget: web}
buildTargets:
  web: {command: "npm run build", description: ""}
`,
		},
		{
			name: "empty ignore glob",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**"], ignorePaths: [" "], fileExtensions: [".ts"], buildCooldown: 5, buildTarget: web}
buildTargets:
  web: {command: "npm run build", description: ""}
`,
		},
		{
			name: "zero cooldown",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**"], fileExtensions: [".ts"], buildCooldown: 0, buildTarget: web}
buildTargets:
  web: {command: "npm run build", description: ""}
`,
		},
		{
			name: "extension without dot",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**"], fileExtensions: ["ts"], buildCooldown: 5, buildTarget: web}
buildTargets:
  web: {command: "npm run build", description: ""}
`,
		},
		{
			name: "empty target command",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**"], fileExtensions: [".ts"], buildCooldown: 5, buildTarget: web}
buildTargets:
  web: {command: "  ", description: ""}
`,
		},
		{
			name: "no targets at all",
			content: `
autoTrigger: {enabled: true, watchPaths: ["src/**"], fileExtensions: [".ts"], buildCooldown: 5, buildTarget: web}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if !errors.Is(err, errors.ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// TestLoad_NormalizesExtensions tests extension case folding
func TestLoad_NormalizesExtensions(t *testing.T) {
	path := writeConfig(t, `
autoTrigger: {enabled: true, watchPaths: ["src/**"], fileExtensions: [".TS", " .Rs"], buildCooldown: 5, buildTarget: web}
buildTargets:
  web: {command: "npm run build", description: ""}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := []string{".ts", ".rs"}
	if diff := cmp.Diff(want, cfg.AutoTrigger.FileExtensions); diff != "" {
		t.Errorf("FileExtensions mismatch (-want +got):\n%s", diff)
	}
}

// TestWriteDefault_CreatesTemplate tests that init's template parses back to Default()
func TestWriteDefault_CreatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".buildwatch", "config.yaml")

	created, err := WriteDefault(path)
	if err != nil {
		t.Fatalf("WriteDefault() failed: %v", err)
	}
	if !created {
		t.Fatal("WriteDefault() reported no file created")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of the default template failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("default template drifted from Default() (-want +got):\n%s", diff)
	}

	// A second call must not clobber an existing file.
	created, err = WriteDefault(path)
	if err != nil {
		t.Fatalf("WriteDefault() second call failed: %v", err)
	}
	if created {
		t.Error("WriteDefault() overwrote an existing config")
	}
}

// TestStateFiles_Layout tests the runtime state path layout
func TestStateFiles_Layout(t *testing.T) {
	st := StateFiles("/proj")
	if st.Dir != filepath.Join("/proj", ".buildwatch", "watcher") {
		t.Errorf("state dir = %s", st.Dir)
	}
	if filepath.Base(st.PIDFile) != "watcher.pid" || filepath.Base(st.SocketFile) != "watcher.sock" {
		t.Errorf("unexpected state file names: %+v", st)
	}
}
