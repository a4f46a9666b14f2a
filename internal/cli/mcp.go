package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/checks"
	"github.com/mvp-joe/phpscan/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for LLM coding assistants",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered
coding assistants analyze the project and look up PHP symbols.

The MCP server:
- Runs the analyzer on demand via the php_analyze tool
- Resolves classes, functions and constants via php_symbol
- Searches declarations via php_symbol_search
- Communicates via stdio (standard MCP transport)

The first tool call triggers the initial analysis, so startup is
instant even on large projects.

Example:
  phpscan mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	// stdout carries the MCP transport, startup info goes to stderr.
	fmt.Fprintf(os.Stderr, "phpscan MCP server\n")
	fmt.Fprintf(os.Stderr, "Project: %s\n", rootDir)
	fmt.Fprintf(os.Stderr, "Level: %d\n\n", int(level))

	a, err := analyzer.New(analyzer.Options{
		RootDir:     rootDir,
		Config:      cfg,
		Level:       int(level),
		Incremental: true,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer a.Close()

	server, err := mcp.NewServer(mcp.Options{
		Analyzer: a,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve blocks until shutdown.
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
