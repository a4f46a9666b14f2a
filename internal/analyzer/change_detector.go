package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mvp-joe/phpscan/internal/storage"
)

// ChangeSet is the result of comparing the filesystem to the recorded
// fingerprints. Paths are relative to the analysis root.
type ChangeSet struct {
	Added     []string // files on disk with no fingerprint
	Modified  []string // files whose content hash differs
	Deleted   []string // fingerprints with no file on disk
	Unchanged []string // files with identical content
}

// ChangeDetector compares filesystem state to stored fingerprints.
type ChangeDetector struct {
	rootDir   string
	files     *storage.FileStore
	discovery *Discovery
}

// NewChangeDetector creates a detector over the given file store.
func NewChangeDetector(rootDir string, files *storage.FileStore, discovery *Discovery) *ChangeDetector {
	return &ChangeDetector{
		rootDir:   rootDir,
		files:     files,
		discovery: discovery,
	}
}

// DetectChanges classifies files as added, modified, deleted or
// unchanged. When hint is non-empty only those files are checked and
// deletions are not reported; an empty hint triggers full discovery.
//
// A file whose mtime matches its fingerprint is unchanged without
// hashing. When the mtime differs the content hash decides: an equal
// hash means mtime drift, a different hash means a real modification.
func (cd *ChangeDetector) DetectChanges(ctx context.Context, hint []string) (*ChangeSet, error) {
	changes := &ChangeSet{}

	var toCheck []string
	if len(hint) == 0 {
		discovered, err := cd.discovery.PHPFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to discover files: %w", err)
		}
		toCheck = discovered
	} else {
		toCheck = make([]string, 0, len(hint))
		for _, path := range hint {
			rel := path
			if filepath.IsAbs(path) {
				r, err := filepath.Rel(cd.rootDir, path)
				if err != nil {
					return nil, fmt.Errorf("failed to get relative path for %s: %w", path, err)
				}
				rel = r
			}
			toCheck = append(toCheck, rel)
		}
	}

	recorded, err := cd.files.AllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to read file fingerprints: %w", err)
	}
	recordedByPath := make(map[string]*storage.FileRecord, len(recorded))
	for _, rec := range recorded {
		recordedByPath[rec.Path] = rec
	}

	for _, rel := range toCheck {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := os.Stat(filepath.Join(cd.rootDir, rel))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", rel, err)
		}

		rec, known := recordedByPath[rel]
		if !known {
			changes.Added = append(changes.Added, rel)
			continue
		}
		delete(recordedByPath, rel)

		if info.ModTime().Equal(rec.LastModified) {
			changes.Unchanged = append(changes.Unchanged, rel)
			continue
		}

		hash, err := hashFile(filepath.Join(cd.rootDir, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", rel, err)
		}
		if hash == rec.Hash {
			changes.Unchanged = append(changes.Unchanged, rel)
		} else {
			changes.Modified = append(changes.Modified, rel)
		}
	}

	// Whatever fingerprints were never matched against disk are gone,
	// but only a full discovery can say so.
	if len(hint) == 0 {
		for path := range recordedByPath {
			changes.Deleted = append(changes.Deleted, path)
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Modified)
	sort.Strings(changes.Deleted)
	sort.Strings(changes.Unchanged)
	return changes, nil
}

// hashFile returns the hex SHA-256 of a file's contents.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
