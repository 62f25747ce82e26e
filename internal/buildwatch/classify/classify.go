// Package classify decides whether a changed path is allowed to trigger a
// build. Evaluation order is fixed: ignore patterns always win over watch
// patterns, and the extension set is checked last.
//
// Glob matching uses doublestar semantics: `**` spans any number of path
// segments, `*` stays within a single segment. Patterns match
// case-sensitively on every platform; extension comparison is
// case-insensitive.
package classify

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
)

// Result is the classification outcome for a changed path.
type Result int

const (
	Accepted Result = iota
	RejectedByIgnore
	RejectedByWatchPath
	RejectedByExtension
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedByIgnore:
		return "rejected by ignore pattern"
	case RejectedByWatchPath:
		return "rejected by watch pattern"
	case RejectedByExtension:
		return "rejected by extension"
	default:
		return "unknown"
	}
}

// Rel normalizes an absolute event path to the root-relative slash form the
// matcher expects. It reports false for paths outside root.
func Rel(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// Classify evaluates a root-relative slash path against the trigger rules.
func Classify(relPath string, rules config.AutoTrigger) Result {
	if matchAny(rules.IgnorePaths, relPath) {
		return RejectedByIgnore
	}
	if !matchAny(rules.WatchPaths, relPath) {
		return RejectedByWatchPath
	}
	ext := strings.ToLower(path.Ext(relPath))
	for _, allowed := range rules.FileExtensions {
		if ext == allowed {
			return Accepted
		}
	}
	return RejectedByExtension
}

func matchAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// IgnoreDir reports whether a directory should be pruned from the watch
// tree: hidden directories, and directories covered by an ignore pattern.
func IgnoreDir(relDir string, ignorePaths []string) bool {
	name := path.Base(relDir)
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	for _, pattern := range ignorePaths {
		if ok, _ := doublestar.Match(pattern, relDir); ok {
			return true
		}
		// "**/node_modules/**" covers entries below node_modules but not
		// the directory itself; trim the trailing globstar to prune it too.
		if trimmed, found := strings.CutSuffix(pattern, "/**"); found {
			if ok, _ := doublestar.Match(trimmed, relDir); ok {
				return true
			}
		}
	}
	return false
}
