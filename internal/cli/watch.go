package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/checks"
	"github.com/mvp-joe/phpscan/internal/watcher"
)

var debounceFlag time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-analyze files as they change",
	Long: `Watch runs a full analysis and then keeps watching the project for
changes to PHP files. Changes are batched over a short debounce window
and re-analyzed together, so a save-all in an editor triggers a single
run. The report after each run covers only the re-analyzed files.

Examples:
  # Watch the current directory
  phpscan watch

  # A longer quiet period between change and re-analysis
  phpscan watch --debounce 2s
`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&debounceFlag, "debounce", 500*time.Millisecond, "quiet period before changed files are re-analyzed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Stopping watch mode...")
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

	logger := buildLogger()

	// Warm-start from the last stored run so a restart of watch mode
	// does not re-analyze the whole project.
	a, err := analyzer.New(analyzer.Options{
		RootDir:     rootDir,
		Config:      cfg,
		Level:       int(level),
		Incremental: true,
		Logger:      logger,
		Progress:    NewCLIProgressReporter(quietFlag),
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
		return fmt.Errorf("initial analysis failed: %w", err)
	}
	writeTextReport(os.Stdout, report)

	w, err := watcher.New(watcher.Options{
		RootDir:  rootDir,
		Runner:   a,
		OnReport: func(rep *analyzer.Report) { writeWatchReport(os.Stdout, rep) },
		Debounce: debounceFlag,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.Start(ctx)

	if !quietFlag {
		fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", rootDir)
	}

	<-ctx.Done()

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	if !quietFlag {
		fmt.Println("Watch mode stopped")
	}
	return nil
}

// writeWatchReport prints the outcome of one triggered re-analysis.
func writeWatchReport(w io.Writer, rep *analyzer.Report) {
	stamp := time.Now().Format("15:04:05")
	checked := rep.FilesAnalyzed + rep.FilesReused

	if len(rep.Issues) == 0 {
		fmt.Fprintf(w, "[%s] ✓ %s checked, no issues\n", stamp, plural(checked, "file"))
		return
	}

	fmt.Fprintf(w, "[%s] ✗ %s checked, %s:\n", stamp, plural(checked, "file"), plural(len(rep.Issues), "issue"))
	for _, iss := range rep.Issues {
		fmt.Fprintf(w, "  %s:%d:%d: %s: %s\n", iss.File, iss.Line, iss.Column, iss.Severity, iss.Message)
	}
}
