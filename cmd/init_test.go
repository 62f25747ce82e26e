package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/buildwatch/vcs"
)

// scaffoldDir creates a directory that passes the project file check.
func scaffoldDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "src-tauri"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestCheckProjectFiles_Complete(t *testing.T) {
	root := scaffoldDir(t)

	if err := checkProjectFiles(root); err != nil {
		t.Errorf("checkProjectFiles() = %v, want nil", err)
	}
}

func TestCheckProjectFiles_Missing(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T) string
		want    string
	}{
		{
			name:    "empty directory",
			prepare: func(t *testing.T) string { return t.TempDir() },
			want:    "package.json, src-tauri/",
		},
		{
			name: "manifest only",
			prepare: func(t *testing.T) string {
				root := t.TempDir()
				if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}\n"), 0o644); err != nil {
					t.Fatal(err)
				}
				return root
			},
			want: "src-tauri/",
		},
		{
			name: "src-tauri is a file",
			prepare: func(t *testing.T) string {
				root := t.TempDir()
				if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}\n"), 0o644); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(root, "src-tauri"), []byte("not a dir"), 0o644); err != nil {
					t.Fatal(err)
				}
				return root
			},
			want: "src-tauri/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkProjectFiles(tt.prepare(t))
			if !errors.Is(err, errors.ErrMissingProjectFiles) {
				t.Fatalf("checkProjectFiles() = %v, want ErrMissingProjectFiles", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name the missing files %q", err, tt.want)
			}
		})
	}
}

func TestScaffoldProject_WritesConfig(t *testing.T) {
	root := scaffoldDir(t)

	if err := scaffoldProject(root, false); err != nil {
		t.Fatalf("scaffoldProject() = %v", err)
	}

	path := filepath.Join(root, ".buildwatch", "config.yaml")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(content), "buildTargets:") {
		t.Error("written config is missing the build target table")
	}
	if vcs.IsRepository(root) {
		t.Error("repository created without being requested")
	}
}

func TestScaffoldProject_KeepsExistingConfig(t *testing.T) {
	root := scaffoldDir(t)
	path := filepath.Join(root, ".buildwatch", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "# hand edited\n"
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := scaffoldProject(root, false); err != nil {
		t.Fatalf("scaffoldProject() = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != custom {
		t.Error("existing config was overwritten")
	}
}

func TestScaffoldProject_InitializesRepository(t *testing.T) {
	root := scaffoldDir(t)

	if err := scaffoldProject(root, true); err != nil {
		t.Fatalf("scaffoldProject() = %v", err)
	}
	if !vcs.IsRepository(root) {
		t.Error("repository not created")
	}

	// Running again over the repository must not fail.
	if err := scaffoldProject(root, true); err != nil {
		t.Errorf("second scaffoldProject() = %v, want nil", err)
	}
}
