// Package watcher implements the build supervisor: it watches the project
// tree, classifies change events against the configured rules, debounces
// accepted changes through the cooldown gate and dispatches builds. It also
// serves the unix control socket used by the status, stop and history
// commands.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/debounce"
	"github.com/buildwatch/buildwatch/internal/buildwatch/dispatch"
	"github.com/buildwatch/buildwatch/internal/buildwatch/history"
	"github.com/buildwatch/buildwatch/internal/buildwatch/notify"
	"github.com/buildwatch/buildwatch/internal/buildwatch/vcs"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/socket"
)

// Supervisor lifecycle states.
const (
	StateIdle     = "Idle"
	StateWatching = "Watching"
	StateBuilding = "Building"
	StateStopped  = "Stopped"
)

// Options configure a Supervisor.
type Options struct {
	// Root is the project root directory to watch.
	Root string

	// ConfigPath is the config file location, reread on reload. Empty
	// means the default location under Root.
	ConfigPath string

	// Config is the loaded configuration the supervisor starts with.
	Config *config.Config

	// Target overrides the configured build target when non-empty.
	Target string

	// DaemonMode detaches the watcher into a background process.
	DaemonMode bool
}

// Supervisor owns one watch session over a project root. It is single use:
// once stopped it cannot be started again.
type Supervisor struct {
	root       string
	configPath string
	files      config.State
	daemonMode bool

	// targetOverride pins the build target across config reloads.
	targetOverride string

	mu          sync.Mutex
	cfg         *config.Config
	notifier    *notify.Notifier
	lifecycle   string
	target      string
	startedAt   time.Time
	lastTrigger time.Time
	lastOutcome *dispatch.Outcome

	gate       *debounce.Gate
	dispatcher *dispatch.Dispatcher
	vcs        *vcs.Manager
	db         *history.DB

	fsw    *fsnotify.Watcher
	server *socket.Server

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	building atomic.Bool

	// buildFn runs one build. Tests substitute it to control timing.
	buildFn func(ctx context.Context, target string) (*dispatch.Outcome, error)
}

// New creates a supervisor for the given project. It does not touch the
// filesystem until Run or start.
func New(opts Options) *Supervisor {
	target := opts.Target
	if target == "" {
		target = opts.Config.AutoTrigger.BuildTarget
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(opts.Root, filepath.FromSlash(config.DefaultPath))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		root:           opts.Root,
		configPath:     configPath,
		files:          config.StateFiles(opts.Root),
		daemonMode:     opts.DaemonMode,
		targetOverride: opts.Target,
		cfg:            opts.Config,
		notifier:       notify.New(opts.Config),
		lifecycle:      StateIdle,
		target:         target,
		gate:           debounce.NewGate(opts.Config.Cooldown()),
		dispatcher:     dispatch.New(opts.Root),
		vcs:            vcs.New(opts.Root),
		db:             history.New(config.StateFiles(opts.Root).DatabaseFile),
		ctx:            ctx,
		cancel:         cancel,
	}
	s.buildFn = func(ctx context.Context, target string) (*dispatch.Outcome, error) {
		cfg, _ := s.pipeline()
		return s.dispatcher.Run(ctx, target, cfg)
	}
	return s
}

// Done is closed when the supervisor shuts down, whether from a signal, a
// socket stop command or a Stop call.
func (s *Supervisor) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Supervisor) setState(state string) {
	s.mu.Lock()
	s.lifecycle = state
	s.mu.Unlock()
}

func (s *Supervisor) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle == StateStopped
}

// pipeline snapshots the config and notifier pair under one lock so a
// reload cannot split them mid-build.
func (s *Supervisor) pipeline() (*config.Config, *notify.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.notifier
}

func (s *Supervisor) buildTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}
