package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// FileRecord is the stored fingerprint of one analyzed file. Hash is
// the hex SHA-256 of the file contents; LastModified is the mtime
// observed when the file was read.
type FileRecord struct {
	Path         string
	Hash         string
	SizeBytes    int64
	LastModified time.Time
	AnalyzedAt   time.Time
}

// FileStore reads and writes file fingerprints.
type FileStore struct {
	db *sql.DB
}

// NewFileStore creates a FileStore backed by db.
func NewFileStore(db *sql.DB) *FileStore {
	return &FileStore{db: db}
}

// UpsertFile inserts or replaces the fingerprint for rec.Path.
// Replacing a row cascades a delete of the file's stored issues, so
// callers must write issues after the fingerprint, not before.
func (s *FileStore) UpsertFile(rec *FileRecord) error {
	_, err := sq.Insert("files").
		Columns("file_path", "file_hash", "size_bytes", "last_modified", "analyzed_at").
		Values(
			rec.Path,
			rec.Hash,
			rec.SizeBytes,
			rec.LastModified.UTC().Format(time.RFC3339Nano),
			rec.AnalyzedAt.UTC().Format(time.RFC3339),
		).
		Options("OR REPLACE").
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", rec.Path, err)
	}
	return nil
}

// UpsertFiles writes a batch of fingerprints in a single transaction.
func (s *FileStore) UpsertFiles(records []*FileRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, _, err := sq.Insert("files").
		Columns("file_path", "file_hash", "size_bytes", "last_modified", "analyzed_at").
		Values("", "", 0, "", "").
		Options("OR REPLACE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(
			rec.Path,
			rec.Hash,
			rec.SizeBytes,
			rec.LastModified.UTC().Format(time.RFC3339Nano),
			rec.AnalyzedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert file %s: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// File returns the stored fingerprint for path, or nil when the file
// has never been recorded.
func (s *FileStore) File(path string) (*FileRecord, error) {
	var rec FileRecord
	var lastModified, analyzedAt string

	err := sq.Select("file_path", "file_hash", "size_bytes", "last_modified", "analyzed_at").
		From("files").
		Where(sq.Eq{"file_path": path}).
		RunWith(s.db).
		QueryRow().
		Scan(&rec.Path, &rec.Hash, &rec.SizeBytes, &lastModified, &analyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if rec.LastModified, err = time.Parse(time.RFC3339Nano, lastModified); err != nil {
		return nil, fmt.Errorf("failed to parse last_modified for %s: %w", path, err)
	}
	if rec.AnalyzedAt, err = time.Parse(time.RFC3339, analyzedAt); err != nil {
		return nil, fmt.Errorf("failed to parse analyzed_at for %s: %w", path, err)
	}

	return &rec, nil
}

// AllFiles returns every stored fingerprint ordered by path.
func (s *FileStore) AllFiles() ([]*FileRecord, error) {
	rows, err := sq.Select("file_path", "file_hash", "size_bytes", "last_modified", "analyzed_at").
		From("files").
		OrderBy("file_path").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		var rec FileRecord
		var lastModified, analyzedAt string
		if err := rows.Scan(&rec.Path, &rec.Hash, &rec.SizeBytes, &lastModified, &analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		if rec.LastModified, err = time.Parse(time.RFC3339Nano, lastModified); err != nil {
			return nil, fmt.Errorf("failed to parse last_modified for %s: %w", rec.Path, err)
		}
		if rec.AnalyzedAt, err = time.Parse(time.RFC3339, analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to parse analyzed_at for %s: %w", rec.Path, err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// DeleteFile removes the fingerprint for path. Stored issues for the
// file are deleted by the foreign key cascade.
func (s *FileStore) DeleteFile(path string) error {
	_, err := sq.Delete("files").
		Where(sq.Eq{"file_path": path}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}
