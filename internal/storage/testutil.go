package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory database with the full schema for
// tests. The connection is closed automatically when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// NewTestDBFile creates a file-backed database in a temporary
// directory for tests that need to reopen the database.
func NewTestDBFile(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "phpscan.db")
	db, err := Open(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db, path
}
