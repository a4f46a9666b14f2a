package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phpscan/internal/storage"
)

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis cache",
	Long: `Manage the project-local analysis cache.

The cache holds a SQLite database with file fingerprints, stored issues
and run history. Incremental runs use it to skip files that have not
changed since the last run.

Available commands:
  status - Show cache location and stats
  clear  - Delete the cache to force a full re-analysis`,
}

// cacheStatusCmd shows cache location and basic stats
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache location and stats",
	Long: `Display the cache location and basic statistics.

Shows:
  - Cache directory location
  - Database size
  - Number of tracked files and stored issues
  - When the last analysis ran`,
	RunE: runCacheStatus,
}

// cacheClearCmd deletes the cache directory
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache to force a full re-analysis",
	Long: `Clear removes the cache directory, including the analysis database.
The next run re-parses and re-checks every file.

Use cases:
  - Corrupted cache data
  - Fresh start after large refactorings
  - Debugging incremental analysis`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	rootDir, err := resolveRoot()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, rootDir)
	if err != nil {
		return err
	}

	cacheDir := cfg.CacheDir(rootDir)
	fmt.Printf("Cache location: %s\n", cacheDir)
	if !cfg.Cache.Enabled {
		fmt.Println("Cache: disabled by configuration")
		return nil
	}

	dbPath := filepath.Join(cacheDir, storage.DBFileName)
	info, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		fmt.Println("No cache database found, the next run builds one")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat cache database: %w", err)
	}
	fmt.Printf("Database size: %.2f MB\n", float64(info.Size())/(1024*1024))

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer db.Close()

	files, err := storage.NewFileStore(db).AllFiles()
	if err != nil {
		return fmt.Errorf("failed to read cached files: %w", err)
	}
	issueCount, err := storage.NewIssueStore(db).CountIssues()
	if err != nil {
		return fmt.Errorf("failed to count stored issues: %w", err)
	}

	fmt.Printf("Files tracked: %d\n", len(files))
	fmt.Printf("Issues stored: %d\n", issueCount)

	last, err := storage.NewRunStore(db).LastRun()
	if err != nil {
		return fmt.Errorf("failed to read last run: %w", err)
	}
	if last == nil {
		fmt.Println("Last run: never")
		return nil
	}
	fmt.Printf("Last run: %s (level %d, %d files analyzed, %d issues)\n",
		formatDuration(time.Since(last.FinishedAt)), last.Level, last.FilesAnalyzed, last.IssuesFound)

	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	rootDir, err := resolveRoot()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, rootDir)
	if err != nil {
		return err
	}

	cacheDir := cfg.CacheDir(rootDir)
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		if !quietFlag {
			fmt.Println("No cache found for this project")
		}
		return nil
	}

	// Size before deletion, for the summary line.
	sizeMB, err := dirSizeMB(cacheDir)
	if err != nil {
		sizeMB = 0
	}

	if err := os.RemoveAll(cacheDir); err != nil {
		return fmt.Errorf("failed to remove cache: %w", err)
	}

	if !quietFlag {
		if sizeMB > 0 {
			fmt.Printf("✓ Cleared cache at %s (~%.1f MB)\n", cacheDir, sizeMB)
		} else {
			fmt.Printf("✓ Cleared cache at %s\n", cacheDir)
		}
		fmt.Println("Next run will perform a full analysis")
	}
	return nil
}

// dirSizeMB sums the file sizes under dir.
func dirSizeMB(dir string) (float64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return float64(total) / (1024 * 1024), err
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
