// Package db keeps the local journal of commands sent to the service.
//
// The journal records what this client asked for and how each request ended.
// It is never consulted for device state; the service is the only source of
// truth for that.
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/rascsictl/journal.db"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// WAL lets concurrent CLI invocations append without blocking readers
	if _, err := conn.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	migrations := []string{
		migrationV1,
		migrationV2,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "migration v%d failed", v)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates the command journal
const migrationV1 = `
CREATE TABLE IF NOT EXISTS commands (
    id INTEGER PRIMARY KEY,
    request_id TEXT NOT NULL,
    operation TEXT NOT NULL,
    scsi_id INTEGER,
    params TEXT,
    outcome TEXT NOT NULL,
    message TEXT,
    endpoint TEXT,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commands_time ON commands(timestamp);
CREATE INDEX IF NOT EXISTS idx_commands_operation ON commands(operation);
`

// migrationV2 records transport failure details
const migrationV2 = `
ALTER TABLE commands ADD COLUMN error_kind TEXT;
ALTER TABLE commands ADD COLUMN attempts INTEGER DEFAULT 0;
ALTER TABLE commands ADD COLUMN duration_ms INTEGER DEFAULT 0;

CREATE INDEX IF NOT EXISTS idx_commands_outcome ON commands(outcome);
`

// Entry is one journaled command
type Entry struct {
	ID        int64         `json:"id"`
	RequestID string        `json:"request_id"`
	Operation string        `json:"operation"`
	SCSIID    *int          `json:"scsi_id,omitempty"`
	Params    []string      `json:"params,omitempty"`
	Outcome   string        `json:"outcome"`
	Message   string        `json:"message,omitempty"`
	Endpoint  string        `json:"endpoint,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// Outcomes
const (
	// OutcomeOK: the service accepted the command
	OutcomeOK = "ok"
	// OutcomeRejected: the service answered with status false
	OutcomeRejected = "rejected"
	// OutcomeFailed: transport or protocol failure, no answer
	OutcomeFailed = "failed"
)
