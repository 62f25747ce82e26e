// Package vcs implements the optional post-build version control step:
// stage everything, commit with a templated message, and push.
package vcs

import (
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/dispatch"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// timestampPlaceholder is replaced in commit message templates with the
// local time of the commit.
const timestampPlaceholder = "{timestamp}"

const timestampLayout = "2006-01-02 15:04:05"

// defaultCommitTemplate is used when the configured template is blank.
const defaultCommitTemplate = "Auto-build: {timestamp}"

// Fallback commit identity for repositories without user.name configured.
const (
	defaultAuthorName  = "buildwatch"
	defaultAuthorEmail = "buildwatch@localhost"
)

// Manager runs version control actions against the project repository.
type Manager struct {
	root string
	now  func() time.Time
}

// New returns a manager for the repository at the project root.
func New(root string) *Manager {
	return &Manager{root: root, now: time.Now}
}

// Snapshot is a read-only view of repository state for status output.
type Snapshot struct {
	Branch       string `json:"branch"`
	Clean        bool   `json:"clean"`
	ChangedFiles int    `json:"changed_files"`
}

// Init creates a repository at root for the init command. An already
// initialized repository is not an error.
func Init(root string) error {
	_, err := git.PlainInit(root, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return nil
	}
	return err
}

// IsRepository reports whether root holds a git repository.
func IsRepository(root string) bool {
	_, err := git.PlainOpen(root)
	return err == nil
}

// RunIfEnabled stages, commits, and optionally pushes after a successful
// build. It is a no-op unless github.autoCommit is set and the outcome
// succeeded. Returned errors are advisory: callers log them as warnings
// without changing the build result.
func (m *Manager) RunIfEnabled(outcome *dispatch.Outcome, cfg *config.Config) error {
	if !cfg.GitHub.AutoCommit || outcome == nil || !outcome.Succeeded {
		return nil
	}

	repo, err := m.open()
	if err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "opening worktree")
	}
	status, err := worktree.Status()
	if err != nil {
		return errors.Wrap(err, "querying worktree status")
	}
	if status.IsClean() {
		log.DebugH2("Working tree clean, nothing to commit")
		return nil
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(err, "staging changes")
	}
	message := FormatCommitMessage(cfg.GitHub.CommitMessage, m.now())
	hash, err := worktree.Commit(message, &git.CommitOptions{Author: m.author(repo)})
	if err != nil {
		return errors.Wrap(err, "committing")
	}
	log.InfoH2("Committed %s: %s", hash.String()[:8], message)

	if !cfg.GitHub.AutoPush {
		return nil
	}
	switch err := repo.Push(&git.PushOptions{}); {
	case err == nil:
		log.InfoH2("Pushed to upstream")
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		log.DebugH2("Remote already up to date")
	default:
		return errors.Wrap(err, "pushing")
	}
	return nil
}

// Snapshot reports the current branch and working tree cleanliness.
func (m *Manager) Snapshot() (*Snapshot, error) {
	repo, err := m.open()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Branch: "(no commits)"}
	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			snap.Branch = head.Name().Short()
		} else {
			snap.Branch = head.Hash().String()[:8]
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "opening worktree")
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, errors.Wrap(err, "querying worktree status")
	}
	for _, file := range status {
		if file.Worktree != git.Unmodified || file.Staging != git.Unmodified {
			snap.ChangedFiles++
		}
	}
	snap.Clean = snap.ChangedFiles == 0
	return snap, nil
}

// FormatCommitMessage renders a commit message template, substituting
// {timestamp} with the given local time.
func FormatCommitMessage(template string, when time.Time) string {
	if strings.TrimSpace(template) == "" {
		template = defaultCommitTemplate
	}
	return strings.ReplaceAll(template, timestampPlaceholder, when.Format(timestampLayout))
}

func (m *Manager) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(m.root)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.Wrapf(errors.ErrNotARepository, "%s", m.root)
		}
		return nil, errors.Wrap(err, "opening repository")
	}
	return repo, nil
}

// author resolves the commit signature from git configuration, falling
// back to a service identity when user.name is unset.
func (m *Manager) author(repo *git.Repository) *object.Signature {
	sig := &object.Signature{
		Name:  defaultAuthorName,
		Email: defaultAuthorEmail,
		When:  m.now(),
	}
	repoCfg, err := repo.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return sig
	}
	if repoCfg.User.Name != "" {
		sig.Name = repoCfg.User.Name
	}
	if repoCfg.User.Email != "" {
		sig.Email = repoCfg.User.Email
	}
	return sig
}
