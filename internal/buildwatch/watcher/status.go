package watcher

import (
	"fmt"
	"os"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/dispatch"
	"github.com/buildwatch/buildwatch/internal/buildwatch/notify"
	"github.com/buildwatch/buildwatch/internal/buildwatch/vcs"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/socket"
	"github.com/buildwatch/buildwatch/internal/log"
)

// stopAckDelay gives the stop response time to reach the client before the
// socket shuts down.
const stopAckDelay = 100 * time.Millisecond

// Status is a point-in-time snapshot of the supervisor. Reading it has no
// side effects.
type Status struct {
	State       string            `json:"state"`
	Root        string            `json:"root"`
	Target      string            `json:"target"`
	PID         int               `json:"pid"`
	Uptime      time.Duration     `json:"uptime,omitempty"`
	LastTrigger *time.Time        `json:"last_trigger,omitempty"`
	LastOutcome *dispatch.Outcome `json:"last_outcome,omitempty"`
	VCS         *vcs.Snapshot     `json:"vcs,omitempty"`
}

// Status reports the supervisor state, the last trigger and build outcome,
// and the repository snapshot when the project is under version control.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	st := Status{
		State:       s.lifecycle,
		Root:        s.root,
		Target:      s.target,
		LastOutcome: s.lastOutcome,
	}
	if !s.startedAt.IsZero() {
		st.Uptime = time.Since(s.startedAt)
	}
	if !s.lastTrigger.IsZero() {
		trigger := s.lastTrigger
		st.LastTrigger = &trigger
	}
	s.mu.Unlock()

	st.PID = os.Getpid()
	if snap, err := s.vcs.Snapshot(); err == nil {
		st.VCS = snap
	}
	return st
}

// HandleCommand implements the control socket protocol.
func (s *Supervisor) HandleCommand(cmd socket.Command) socket.Response {
	switch cmd.Action {
	case socket.ActionStatus:
		return socket.Response{Success: true, Message: "watcher status", Data: s.Status()}

	case socket.ActionStop:
		// Acknowledge first, then cancel, so the client reads the
		// response before the socket disappears.
		go func() {
			time.Sleep(stopAckDelay)
			s.cancel()
		}()
		return socket.Response{Success: true, Message: "stopping watcher"}

	case socket.ActionReload:
		if err := s.Reload(); err != nil {
			return socket.Response{Success: false, Error: err.Error()}
		}
		return socket.Response{Success: true, Message: "configuration reloaded"}

	case socket.ActionHistory:
		builds, err := s.db.RecentBuilds(intFromData(cmd.Data, "limit"))
		if err != nil {
			return socket.Response{Success: false, Error: err.Error()}
		}
		return socket.Response{Success: true, Message: "recent builds", Data: builds}

	case socket.ActionEvents:
		events, err := s.db.RecentEvents(intFromData(cmd.Data, "limit"))
		if err != nil {
			return socket.Response{Success: false, Error: err.Error()}
		}
		return socket.Response{Success: true, Message: "recent events", Data: events}

	default:
		return socket.Response{Success: false, Error: fmt.Sprintf("unknown action: %s", cmd.Action)}
	}
}

// Reload rereads the configuration file and applies the new trigger rules,
// cooldown and notification settings. The watch registrations are kept;
// changed ignore globs take effect through classification and for
// directories created afterwards.
func (s *Supervisor) Reload() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.notifier = notify.New(cfg)
	if s.targetOverride == "" {
		s.target = cfg.AutoTrigger.BuildTarget
	}
	s.mu.Unlock()
	s.gate.SetCooldown(cfg.Cooldown())

	log.Info("Configuration reloaded (target %q, cooldown %s)", s.buildTarget(), cfg.Cooldown())
	return nil
}

// intFromData extracts a positive integer from decoded JSON command data,
// where numbers arrive as float64.
func intFromData(data map[string]interface{}, key string) int {
	if v, ok := data[key].(float64); ok && v > 0 {
		return int(v)
	}
	return 0
}
