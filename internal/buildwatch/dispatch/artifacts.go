package dispatch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
)

// conventionalArtifactsDir is scanned when a target does not configure its
// own artifacts directory.
const conventionalArtifactsDir = "src-tauri/target/release"

// mtimeGrace absorbs coarse filesystem timestamp granularity when comparing
// artifact modification times against the build start.
const mtimeGrace = 2 * time.Second

// artifactSuffixes are file endings that look like distributable outputs.
var artifactSuffixes = []string{
	".exe", ".msi", ".dmg", ".pkg", ".app",
	".appimage", ".deb", ".rpm",
	".zip", ".tar.gz",
}

// intermediateDirs are compiler work directories that never hold
// distributable files.
var intermediateDirs = map[string]bool{
	"deps":         true,
	"build":        true,
	"incremental":  true,
	".fingerprint": true,
	"examples":     true,
}

// scanArtifacts lists distributable files under the target's artifacts
// directory that were written by this build. The scan is best effort: a
// missing directory or an empty result is not a failure. Paths come back
// slash separated and relative to the project root.
func scanArtifacts(root string, target config.Target, startedAt time.Time) []string {
	dir := target.ArtifactsDir
	if dir == "" {
		dir = conventionalArtifactsDir
	}
	base := filepath.Join(root, filepath.FromSlash(dir))
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return nil
	}

	cutoff := startedAt.Add(-mtimeGrace)
	var artifacts []string
	_ = filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if path != base && intermediateDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().Before(cutoff) {
			return nil
		}
		topLevel := filepath.Dir(path) == base
		if !looksDistributable(entry.Name(), info.Mode(), topLevel) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		artifacts = append(artifacts, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(artifacts)
	return artifacts
}

// looksDistributable reports whether a file name resembles a build output.
// Bare executables only count at the top of the artifacts directory, where
// compiled binaries land; executable bits deeper down are usually build
// intermediates.
func looksDistributable(name string, mode fs.FileMode, topLevel bool) bool {
	lower := strings.ToLower(name)
	for _, suffix := range artifactSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return topLevel && mode.IsRegular() && mode&0o111 != 0
}
