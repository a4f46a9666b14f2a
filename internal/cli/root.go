// Package cli implements the phpscan command line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phpscan/internal/config"
)

var (
	cfgFile         string
	rootFlag        string
	levelFlag       string
	incrementalFlag bool
	jsonFlag        bool
	verbose         bool
	quietFlag       bool
)

// errIssuesFound makes the process exit non-zero after a run that found
// errors. The report has already been printed, so Execute suppresses the
// message itself.
var errIssuesFound = errors.New("issues found")

// rootCmd represents the base command. Called without a subcommand it
// runs a full analysis, mirroring `phpscan analyze`.
var rootCmd = &cobra.Command{
	Use:   "phpscan",
	Short: "phpscan - static analysis for PHP projects",
	Long: `phpscan finds bugs in PHP projects without running them.

It resolves the project's composer autoload configuration, builds a
symbol table across all reachable files and runs leveled checks over
every statement. Higher levels add stricter checks on top of the lower
ones.

Running phpscan without a subcommand analyzes the project in the
current directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is phpscan.yml in the project root)")
	pf.StringVar(&rootFlag, "root", "", "project root directory (default is the working directory)")
	pf.StringVarP(&levelFlag, "level", "l", "", "analysis level, 0-9 or \"max\" (overrides the config file)")
	pf.BoolVar(&incrementalFlag, "incremental", false, "reuse stored results for unchanged files")
	pf.BoolVar(&jsonFlag, "json", false, "print the report as JSON")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and status messages")
}

// resolveRoot returns the absolute project root from --root or the
// working directory.
func resolveRoot() (string, error) {
	if rootFlag != "" {
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return "", fmt.Errorf("failed to resolve root directory: %w", err)
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadConfig loads the configuration for rootDir and applies the
// command line overrides on top of it.
func loadConfig(cmd *cobra.Command, rootDir string) (*config.Config, error) {
	var ldr config.Loader
	if cfgFile != "" {
		ldr = config.NewLoaderWithFile(rootDir, cfgFile)
	} else {
		ldr = config.NewLoader(rootDir)
	}

	cfg, err := ldr.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("level") {
		cfg.Level = levelFlag
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// buildLogger returns a text logger on stderr. The default level keeps
// normal runs quiet, --verbose opens up debug output.
func buildLogger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quietFlag:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
