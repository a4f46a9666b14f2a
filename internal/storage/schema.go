// Package storage persists analysis state in a project-local SQLite
// database. It records file fingerprints (hash, mtime), the issues
// found per file, and one row per analysis run so that later runs can
// skip files that have not changed.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is bumped whenever the table layout changes in a way
// that requires a rebuild of the database.
const SchemaVersion = "1"

// DBFileName is the database file name inside the cache directory.
const DBFileName = "phpscan.db"

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
    file_path TEXT PRIMARY KEY,
    file_hash TEXT NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    last_modified TEXT NOT NULL,
    analyzed_at TEXT NOT NULL
);
`

const createIssuesTable = `
CREATE TABLE IF NOT EXISTS issues (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    check_id TEXT NOT NULL,
    severity INTEGER NOT NULL DEFAULT 0,
    message TEXT NOT NULL,
    line INTEGER NOT NULL,
    col INTEGER NOT NULL,
    identifier TEXT NOT NULL DEFAULT '',
    tip TEXT NOT NULL DEFAULT '',
    run_id TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
);
`

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    level INTEGER NOT NULL,
    files_analyzed INTEGER NOT NULL DEFAULT 0,
    issues_found INTEGER NOT NULL DEFAULT 0
);
`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS scan_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Open opens (or creates) the analysis database at path and ensures the
// schema exists. The special path ":memory:" yields a throwaway
// in-memory database.
func Open(path string) (*sql.DB, error) {
	// The _foreign_keys option applies the pragma on every pooled
	// connection, which a one-off PRAGMA exec would not.
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CreateSchema creates all tables and indexes if they do not exist.
// It is safe to call on an already initialized database.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"issues", createIssuesTable},
		{"runs", createRunsTable},
		{"scan_metadata", createMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_issues_file_path ON issues(file_path)",
		"CREATE INDEX IF NOT EXISTS idx_issues_run_id ON issues(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at)",
	}

	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(
		"INSERT INTO scan_metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING",
		"schema_version", SchemaVersion, now,
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	return nil
}

// GetSchemaVersion returns the schema version recorded in the database,
// or an empty string when the database has never been initialized.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var version string
	err := sq.Select("value").
		From("scan_metadata").
		Where(sq.Eq{"key": "schema_version"}).
		RunWith(db).
		QueryRow().
		Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// UpdateSchemaVersion records version as the current schema version.
func UpdateSchemaVersion(db *sql.DB, version string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		"INSERT INTO scan_metadata (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		"schema_version", version, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}
