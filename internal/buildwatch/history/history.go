// Package history persists build results and watch decisions to a SQLite
// database under the project state directory.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"

	// Pure-Go SQLite driver for database/sql (no CGO required).
	_ "modernc.org/sqlite"
)

// DB wraps the history database. All write methods degrade to no-ops when
// the database never opened: history is advisory and must not take the
// watcher down with it.
type DB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// New creates a handle. Nothing touches the filesystem until Init.
func New(path string) *DB {
	return &DB{path: path}
}

// Init opens the database and creates the schema.
func (d *DB) Init() error {
	log.DebugH2("Initializing build history database: %s", d.path)

	if err := os.MkdirAll(filepath.Dir(d.path), 0o750); err != nil {
		return errors.Wrap(err, "creating history directory")
	}

	// WAL keeps readers (status, history queries) from blocking the
	// watcher's writes.
	dsn := d.path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return errors.Wrap(err, "opening history database")
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "pinging history database")
	}

	d.mu.Lock()
	d.db = db
	d.mu.Unlock()

	if err := d.createTables(); err != nil {
		return errors.Wrap(err, "creating history tables")
	}
	return nil
}

func (d *DB) createTables() error {
	db := d.conn()
	if db == nil {
		return errors.New("history database not initialized")
	}

	createBuilds := `
		CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			target TEXT NOT NULL,
			trigger_kind TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			failure_reason TEXT,
			artifacts TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
		CREATE INDEX IF NOT EXISTS idx_builds_target ON builds(target);
	`

	createEvents := `
		CREATE TABLE IF NOT EXISTS watcher_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			path TEXT NOT NULL,
			op TEXT NOT NULL,
			decision TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON watcher_events(timestamp);
	`

	if _, err := db.Exec(createBuilds); err != nil {
		return errors.Wrap(err, "creating builds table")
	}
	if _, err := db.Exec(createEvents); err != nil {
		return errors.Wrap(err, "creating watcher_events table")
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *DB) conn() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}
