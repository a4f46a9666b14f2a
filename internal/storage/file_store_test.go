package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phpscan/internal/issue"
)

// Test Plan for FileStore:
// - Upsert followed by File returns the stored fingerprint
// - Timestamps round-trip through RFC3339 at second precision
// - File returns nil, nil for unknown paths
// - Upserting the same path replaces the previous fingerprint
// - Batch upsert writes all records in one transaction
// - AllFiles returns fingerprints ordered by path
// - DeleteFile removes the fingerprint and cascades to issues

func testFileRecord(path, hash string) *FileRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return &FileRecord{
		Path:         path,
		Hash:         hash,
		SizeBytes:    256,
		LastModified: now,
		AnalyzedAt:   now,
	}
}

func TestFileStore_UpsertAndGet(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	store := NewFileStore(db)

	rec := testFileRecord("src/Controller/HomeController.php", "a1b2c3")
	require.NoError(t, store.UpsertFile(rec))

	got, err := store.File("src/Controller/HomeController.php")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, rec.Hash, got.Hash)
	assert.Equal(t, rec.SizeBytes, got.SizeBytes)
	assert.True(t, got.LastModified.Equal(rec.LastModified), "last_modified should round-trip")
	assert.True(t, got.AnalyzedAt.Equal(rec.AnalyzedAt), "analyzed_at should round-trip")
}

func TestFileStore_GetNotFound(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	store := NewFileStore(db)

	got, err := store.File("never/recorded.php")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_UpsertReplaces(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	store := NewFileStore(db)

	require.NoError(t, store.UpsertFile(testFileRecord("src/app.php", "old-hash")))
	require.NoError(t, store.UpsertFile(testFileRecord("src/app.php", "new-hash")))

	got, err := store.File("src/app.php")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new-hash", got.Hash)

	all, err := store.AllFiles()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileStore_UpsertFilesBatch(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	store := NewFileStore(db)

	records := []*FileRecord{
		testFileRecord("src/b.php", "hash-b"),
		testFileRecord("src/a.php", "hash-a"),
		testFileRecord("src/c.php", "hash-c"),
	}
	require.NoError(t, store.UpsertFiles(records))

	// Test: Empty batch is a no-op
	require.NoError(t, store.UpsertFiles(nil))

	all, err := store.AllFiles()
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Test: AllFiles orders by path
	assert.Equal(t, "src/a.php", all[0].Path)
	assert.Equal(t, "src/b.php", all[1].Path)
	assert.Equal(t, "src/c.php", all[2].Path)
}

func TestFileStore_DeleteFileCascadesIssues(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	files := NewFileStore(db)
	issues := NewIssueStore(db)

	require.NoError(t, files.UpsertFile(testFileRecord("src/gone.php", "hash")))
	require.NoError(t, issues.ReplaceFileIssues("src/gone.php", "run-1", []issue.Issue{
		issue.NewError("function.notFound", "Function foo not found.", "src/gone.php", 3, 1),
	}))

	require.NoError(t, files.DeleteFile("src/gone.php"))

	got, err := files.File("src/gone.php")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Test: Foreign key cascade removed the file's issues
	remaining, err := issues.IssuesForFile("src/gone.php")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
