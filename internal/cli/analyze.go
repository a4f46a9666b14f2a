package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/checks"
	"github.com/mvp-joe/phpscan/internal/issue"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the project and report issues",
	Long: `Analyze runs every check at the configured level over the project
and prints the issues it finds.

The level comes from phpscan.yml (level: "0" through "9" or "max") and
can be overridden with --level. Each level includes everything below it:

  0  unknown functions, classes, constants, static calls, missing arguments
  1  undefined and possibly undefined variables
  2  unknown methods on $this and calls with too many arguments

Examples:
  # Analyze the current directory
  phpscan

  # Analyze at a stricter level
  phpscan analyze --level 2

  # Reuse stored results for files that have not changed
  phpscan analyze --incremental

  # Machine readable output
  phpscan analyze --json
`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling analysis...")
		cancel()
	}()

	rootDir, err := resolveRoot()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, rootDir)
	if err != nil {
		return err
	}

	level, err := checks.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	// Progress bars write to stdout, so JSON output implies quiet.
	progress := NewCLIProgressReporter(quietFlag || jsonFlag)

	a, err := analyzer.New(analyzer.Options{
		RootDir:     rootDir,
		Config:      cfg,
		Level:       int(level),
		Incremental: incrementalFlag,
		Logger:      buildLogger(),
		Progress:    progress,
	})
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer a.Close()

	report, err := a.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("analysis cancelled")
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonFlag {
		if err := writeJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		writeTextReport(os.Stdout, report)
	}

	if report.ErrorCount() > 0 {
		return errIssuesFound
	}
	return nil
}

// writeTextReport prints one line per issue followed by a summary.
// Issue locations use the editor-friendly file:line:column form.
func writeTextReport(w io.Writer, rep *analyzer.Report) {
	for _, iss := range rep.Issues {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s", iss.File, iss.Line, iss.Column, iss.Severity, iss.Message)
		if iss.Identifier != "" {
			fmt.Fprintf(w, " [%s]", iss.Identifier)
		}
		fmt.Fprintln(w)
		if iss.Tip != "" {
			fmt.Fprintf(w, "  tip: %s\n", iss.Tip)
		}
	}
	if len(rep.Issues) > 0 {
		fmt.Fprintln(w)
	}

	stats := fmt.Sprintf("level %d, %d files, %d from cache, %.1fs",
		rep.Level, rep.FilesTotal, rep.FilesReused, rep.Duration.Seconds())

	var counts []string
	if n := rep.ErrorCount(); n > 0 {
		counts = append(counts, plural(n, "error"))
	}
	if n := rep.WarningCount(); n > 0 {
		counts = append(counts, plural(n, "warning"))
	}

	if len(counts) == 0 {
		fmt.Fprintf(w, "✓ No errors found (%s)\n", stats)
	} else {
		fmt.Fprintf(w, "✗ Found %s (%s)\n", strings.Join(counts, " and "), stats)
	}
	if rep.IssuesIgnored > 0 {
		fmt.Fprintf(w, "  %s ignored by configuration\n", plural(rep.IssuesIgnored, "issue"))
	}
}

// jsonReport is the machine readable report shape.
type jsonReport struct {
	RunID         string        `json:"run_id"`
	Level         int           `json:"level"`
	FilesTotal    int           `json:"files_total"`
	FilesAnalyzed int           `json:"files_analyzed"`
	FilesReused   int           `json:"files_reused"`
	Errors        int           `json:"errors"`
	Warnings      int           `json:"warnings"`
	IssuesIgnored int           `json:"issues_ignored,omitempty"`
	Issues        []issue.Issue `json:"issues"`
	DurationMS    int64         `json:"duration_ms"`
}

func writeJSONReport(w io.Writer, rep *analyzer.Report) error {
	issues := rep.Issues
	if issues == nil {
		issues = []issue.Issue{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(jsonReport{
		RunID:         rep.RunID,
		Level:         rep.Level,
		FilesTotal:    rep.FilesTotal,
		FilesAnalyzed: rep.FilesAnalyzed,
		FilesReused:   rep.FilesReused,
		Errors:        rep.ErrorCount(),
		Warnings:      rep.WarningCount(),
		IssuesIgnored: rep.IssuesIgnored,
		Issues:        issues,
		DurationMS:    rep.Duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// plural formats a count with its unit, "1 error" or "3 errors".
func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
