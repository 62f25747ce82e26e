package watcher

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	godaemon "github.com/sevlyar/go-daemon"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/daemon"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/socket"
	"github.com/buildwatch/buildwatch/internal/log"
)

// stopWait bounds how long Stop waits for the watch goroutines.
const stopWait = 10 * time.Second

// Run brings the watcher up and blocks until it stops. In daemon mode the
// parent process returns as soon as the child is forked; the child blocks
// here instead.
func (s *Supervisor) Run() error {
	if s.daemonMode {
		log.Info("Starting watcher in daemon mode...")
		return s.runDaemon()
	}
	log.Info("Starting watcher in foreground mode...")
	return s.runForeground()
}

// runDaemon forks the watcher into the background. The pid and log files
// land in the project state directory so status and stop can find them.
func (s *Supervisor) runDaemon() error {
	if err := daemon.EnsureDirectoriesExist(s.files.PIDFile, s.files.LogFile); err != nil {
		return err
	}

	daemonCtx := &godaemon.Context{
		PidFileName: s.files.PIDFile,
		PidFilePerm: 0644,
		LogFileName: s.files.LogFile,
		LogFilePerm: 0640,
		WorkDir:     "./",
		Umask:       027,
	}

	if godaemon.WasReborn() {
		// Daemon child process.
		pid := os.Getpid()
		log.Info("Watcher daemon started (PID: %d)", pid)
		log.InfoH2("PID file: %s", s.files.PIDFile)
		log.InfoH2("Log file: %s", s.files.LogFile)

		if err := daemon.WritePIDFile(s.files.PIDFile, pid); err != nil {
			log.Error("Failed to write PID file: %v", err)
			return errors.Wrap(err, "writing PID file")
		}
		return s.runForeground()
	}

	// Parent process. Refuse to fork over a live watcher.
	if state := daemon.Probe(s.files.PIDFile); state.Running {
		return errors.Wrapf(errors.ErrWatcherAlreadyRunning, "PID %d", state.PID)
	}

	child, err := daemonCtx.Reborn()
	if err != nil {
		return errors.Wrap(err, "forking watcher daemon")
	}
	if child != nil {
		log.Info("Watcher daemon started")
		log.InfoH2("PID: %d (saved to %s)", child.Pid, s.files.PIDFile)
		log.InfoH2("Logs: %s", s.files.LogFile)
		return nil
	}
	return errors.New("unexpected daemon fork state")
}

// runForeground starts the supervisor and blocks until a signal arrives or
// the context ends, then shuts down.
func (s *Supervisor) runForeground() error {
	if err := s.start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("Received %s, shutting down", sig)
	case <-s.ctx.Done():
	}
	return s.Stop()
}

// start acquires the watch session resources in order: single instance
// guard, state directory, history database, control socket, filesystem
// watches. Each failure path releases what was already acquired.
func (s *Supervisor) start() error {
	s.mu.Lock()
	if s.lifecycle != StateIdle {
		state := s.lifecycle
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrWatcherAlreadyRunning, "supervisor is %s", state)
	}
	s.mu.Unlock()

	if err := daemon.EnsureDirectoriesExist(s.files.PIDFile, s.files.SocketFile, s.files.DatabaseFile); err != nil {
		return err
	}

	// The daemon child already holds the pid file from the fork. A
	// foreground watcher claims it here.
	if !s.daemonMode {
		if state := daemon.Probe(s.files.PIDFile); state.Running {
			return errors.Wrapf(errors.ErrWatcherAlreadyRunning, "PID %d", state.PID)
		}
		if err := daemon.WritePIDFile(s.files.PIDFile, os.Getpid()); err != nil {
			return err
		}
	}

	if err := s.db.Init(); err != nil {
		// History is advisory, the watcher runs without it.
		log.Error("Build history unavailable: %v", err)
	}

	s.server = socket.NewServer(s.files.SocketFile, s)
	if err := s.server.Init(); err != nil {
		s.release()
		return err
	}

	if err := s.registerWatches(); err != nil {
		s.release()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.server.Run(s.ctx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchLoop()
	}()

	s.mu.Lock()
	s.startedAt = time.Now()
	s.lifecycle = StateWatching
	s.mu.Unlock()

	cfg, _ := s.pipeline()
	log.Info("Watching %s (target %q, cooldown %s)", s.root, s.buildTarget(), cfg.Cooldown())
	return nil
}

// Stop shuts the supervisor down. It is idempotent: stopping an idle or
// already stopped supervisor is a no-op. An in-flight build process is not
// killed; its outcome is discarded when it finishes.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.lifecycle == StateIdle || s.lifecycle == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.lifecycle = StateStopped
	s.mu.Unlock()

	log.Info("Stopping watcher...")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.DebugH2("All watcher goroutines finished")
	case <-time.After(stopWait):
		log.Error("Timeout waiting for watcher goroutines to finish")
	}

	s.release()
	log.Info("Watcher stopped")
	return nil
}

// release frees every acquired resource. It tolerates partially acquired
// state so failed starts and Stop share it.
func (s *Supervisor) release() {
	if s.fsw != nil {
		_ = s.fsw.Close()
		s.fsw = nil
	}
	if s.server != nil {
		if err := s.server.Close(); err != nil {
			log.Error("Failed to close control socket: %v", err)
		}
		s.server = nil
	}
	if err := s.db.Close(); err != nil {
		log.Error("Failed to close history database: %v", err)
	}
	s.removeOwnPIDFile()
}

// removeOwnPIDFile deletes the pid file only when it still names this
// process, so a concurrently started watcher keeps its claim.
func (s *Supervisor) removeOwnPIDFile() {
	pid, err := daemon.ReadPIDFromFile(s.files.PIDFile)
	if err != nil || pid != os.Getpid() {
		return
	}
	if err := os.Remove(s.files.PIDFile); err != nil && !os.IsNotExist(err) {
		log.DebugH3("Cannot remove PID file: %v", err)
	}
}
