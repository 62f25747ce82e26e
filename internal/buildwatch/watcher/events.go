package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/buildwatch/buildwatch/internal/buildwatch/classify"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/buildwatch/history"
	"github.com/buildwatch/buildwatch/internal/log"
)

// triggerOps are the filesystem operations that can start a build.
const triggerOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// registerWatches builds the fsnotify watcher over the project tree.
// Hidden directories and directories covered by an ignore pattern are
// pruned; everything else is registered.
func (s *Supervisor) registerWatches() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating filesystem watcher")
	}

	cfg, _ := s.pipeline()
	count := s.addDirTree(fsw, s.root, cfg.AutoTrigger.IgnorePaths)
	if count == 0 {
		_ = fsw.Close()
		return errors.Wrapf(errors.ErrInvalidConfig, "no watchable directories under %s", s.root)
	}

	s.fsw = fsw
	log.InfoH2("Watching %d directories", count)
	return nil
}

// addDirTree registers base and every non-pruned directory below it,
// returning how many directories joined the watch set.
func (s *Supervisor) addDirTree(fsw *fsnotify.Watcher, base string, ignorePaths []string) int {
	count := 0
	_ = filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		rel, ok := classify.Rel(s.root, path)
		if !ok {
			return nil
		}
		if rel != "." && classify.IgnoreDir(rel, ignorePaths) {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			log.DebugH3("Cannot watch %s: %v", path, addErr)
			return nil
		}
		count++
		return nil
	})
	return count
}

// watchLoop drains filesystem events until the supervisor context ends.
func (s *Supervisor) watchLoop() {
	fsw := s.fsw
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Error("Watcher error: %v", err)
		}
	}
}

// handleEvent classifies one raw filesystem event and, when it is accepted
// and the cooldown gate allows, launches a build.
func (s *Supervisor) handleEvent(event fsnotify.Event) {
	if event.Op&triggerOps == 0 {
		return
	}

	// Newly created directories join the watch set instead of triggering.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			s.watchNewDir(event.Name)
			return
		}
	}

	if isEditorTempFile(filepath.Base(event.Name)) {
		return
	}

	rel, ok := classify.Rel(s.root, event.Name)
	if !ok {
		return
	}

	cfg, _ := s.pipeline()
	result := classify.Classify(rel, cfg.AutoTrigger)
	s.db.LogEvent(rel, event.Op.String(), result.String())
	if result != classify.Accepted {
		log.DebugH3("%s: %s", rel, result)
		return
	}

	log.InfoH2("Change detected: %s (%s)", rel, event.Op)

	// The gate records swallowed changes too, so a burst during a build
	// keeps the cooldown clock honest.
	if !s.gate.TryTrigger() {
		log.DebugH2("Change within cooldown, not triggering: %s", rel)
		return
	}

	s.mu.Lock()
	s.lastTrigger = s.gate.LastTrigger()
	s.mu.Unlock()

	if !s.building.CompareAndSwap(false, true) {
		log.InfoH2("Build already in progress, change recorded")
		return
	}

	s.setState(StateBuilding)
	go s.runBuild(s.buildTarget(), history.TriggerAuto)
}

// watchNewDir registers a directory created after startup, including any
// directories already nested inside it.
func (s *Supervisor) watchNewDir(path string) {
	rel, ok := classify.Rel(s.root, path)
	if !ok {
		return
	}
	cfg, _ := s.pipeline()
	if classify.IgnoreDir(rel, cfg.AutoTrigger.IgnorePaths) {
		return
	}
	if added := s.addDirTree(s.fsw, path, cfg.AutoTrigger.IgnorePaths); added > 0 {
		log.DebugH2("Watching new directory: %s", rel)
	}
}

// runBuild executes the pipeline for one trigger: dispatch, record to
// history, version control post-action, notify. It runs on the background
// context so stopping the watcher never kills the build process; when the
// supervisor stopped mid-build the outcome is discarded instead.
func (s *Supervisor) runBuild(target, trigger string) {
	defer func() {
		s.building.Store(false)
		if !s.stopped() {
			s.setState(StateWatching)
		}
	}()

	log.Info("Triggering build target %q", target)
	outcome, err := s.buildFn(context.Background(), target)
	if err != nil {
		log.Error("Build dispatch failed: %v", err)
		return
	}

	if s.stopped() {
		log.InfoH2("Watcher stopped during build, discarding outcome for %q", outcome.Target)
		return
	}

	if outcome.Succeeded {
		log.Info("Build %q succeeded in %s", outcome.Target, outcome.Duration)
	} else {
		log.Error("Build %q failed after %s: %s", outcome.Target, outcome.Duration, outcome.FailureReason)
	}

	cfg, notifier := s.pipeline()
	s.db.LogBuild(outcome, trigger)
	if err := s.vcs.RunIfEnabled(outcome, cfg); err != nil {
		log.Error("Version control post-action failed: %v", err)
	}
	notifier.Notify(outcome, cfg)

	s.mu.Lock()
	s.lastOutcome = outcome
	s.mu.Unlock()
}

// isEditorTempFile skips the scratch files editors write next to the real
// file, which would otherwise retrigger builds in a loop.
func isEditorTempFile(name string) bool {
	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".swx") || strings.HasSuffix(name, ".tmp") {
		return true
	}
	if strings.HasPrefix(name, ".#") {
		return true
	}
	if strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#") {
		return true
	}
	return false
}
