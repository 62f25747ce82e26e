package history

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildwatch/buildwatch/internal/buildwatch/dispatch"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// Trigger kinds for build records.
const (
	TriggerAuto   = "auto"
	TriggerManual = "manual"
)

// Build is one persisted build record.
type Build struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Target        string        `json:"target"`
	Trigger       string        `json:"trigger"`
	Succeeded     bool          `json:"succeeded"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Artifacts     []string      `json:"artifacts,omitempty"`
}

// Event is one persisted watch decision.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Op        string    `json:"op"`
	Decision  string    `json:"decision"`
}

// LogBuild persists one outcome. Failures land in the debug log only so
// history never blocks the build pipeline.
func (d *DB) LogBuild(outcome *dispatch.Outcome, trigger string) {
	db := d.conn()
	if db == nil || outcome == nil {
		return
	}

	query := `
		INSERT INTO builds (id, started_at, duration_ms, target, trigger_kind, succeeded, failure_reason, artifacts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		uuid.NewString(),
		outcome.StartedAt.UTC().Format(time.RFC3339Nano),
		outcome.Duration.Milliseconds(),
		outcome.Target,
		trigger,
		outcome.Succeeded,
		outcome.FailureReason,
		strings.Join(outcome.Artifacts, "\n"),
	)
	if err != nil {
		log.DebugH3("Failed to record build: %v", err)
	}
}

// LogEvent persists one watch decision, silently.
func (d *DB) LogEvent(path, op, decision string) {
	db := d.conn()
	if db == nil {
		return
	}

	query := `INSERT INTO watcher_events (timestamp, path, op, decision) VALUES (?, ?, ?, ?)`
	if _, err := db.Exec(query, time.Now().UTC().Format(time.RFC3339Nano), path, op, decision); err != nil {
		log.DebugH3("Failed to record watch event: %v", err)
	}
}

// RecentBuilds returns up to limit builds, newest first. An unopened
// database yields an empty list.
func (d *DB) RecentBuilds(limit int) ([]Build, error) {
	db := d.conn()
	if db == nil {
		return []Build{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, started_at, duration_ms, target, trigger_kind, succeeded, failure_reason, artifacts
		FROM builds
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying builds")
	}
	defer func() {
		_ = rows.Close()
	}()

	var builds []Build
	for rows.Next() {
		var (
			b          Build
			startedAt  string
			durationMS int64
			artifacts  string
		)
		if err := rows.Scan(&b.ID, &startedAt, &durationMS, &b.Target, &b.Trigger, &b.Succeeded, &b.FailureReason, &artifacts); err != nil {
			return nil, errors.Wrap(err, "scanning build")
		}
		b.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		b.Duration = time.Duration(durationMS) * time.Millisecond
		if artifacts != "" {
			b.Artifacts = strings.Split(artifacts, "\n")
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// RecentEvents returns up to limit watch decisions, newest first.
func (d *DB) RecentEvents(limit int) ([]Event, error) {
	db := d.conn()
	if db == nil {
		return []Event{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT timestamp, path, op, decision
		FROM watcher_events
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying watch events")
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []Event
	for rows.Next() {
		var (
			e  Event
			ts string
		)
		if err := rows.Scan(&ts, &e.Path, &e.Op, &e.Decision); err != nil {
			return nil, errors.Wrap(err, "scanning watch event")
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
