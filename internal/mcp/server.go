// Package mcp exposes the analyzer over the Model Context Protocol. A
// stdio server offers three tools: php_analyze runs analysis and returns
// issues, php_symbol looks up one declaration by fully-qualified name, and
// php_symbol_search answers ranked full-text queries over declared symbol
// names.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/phpscan/internal/analyzer"
)

const (
	serverName    = "phpscan-mcp"
	serverVersion = "1.0.0"
)

// Server wires an Analyzer and a SymbolIndex to an MCP server on stdio.
type Server struct {
	analyzer *analyzer.Analyzer
	index    *SymbolIndex
	logger   *slog.Logger
	mcp      *server.MCPServer
}

// Options configures a Server. Analyzer is required; the caller keeps
// ownership of it and closes it after the server stops.
type Options struct {
	Analyzer *analyzer.Analyzer
	Logger   *slog.Logger
}

// NewServer creates an MCP server with the php_analyze, php_symbol and
// php_symbol_search tools registered.
func NewServer(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	index, err := NewSymbolIndex()
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		analyzer: opts.Analyzer,
		index:    index,
		logger:   logger,
		mcp:      mcpServer,
	}

	AddAnalyzeTool(mcpServer, s)
	AddSymbolTool(mcpServer, s)
	AddSymbolSearchTool(mcpServer, s)

	return s, nil
}

// Serve runs the MCP server on stdio and blocks until the client
// disconnects, a shutdown signal arrives, or the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP on stdio", "level", s.analyzer.Level())
		errCh <- server.ServeStdio(s.mcp)
	}()

	select {
	case <-sigCh:
		s.logger.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the symbol index. The analyzer belongs to the caller.
func (s *Server) Close() error {
	return s.index.Close()
}

// refresh runs a full analysis and rebuilds the symbol index from the
// resulting table.
func (s *Server) refresh(ctx context.Context) (*analyzer.Report, error) {
	report, err := s.analyzer.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.index.Rebuild(ctx, s.analyzer.Table()); err != nil {
		return nil, err
	}
	return report, nil
}

// ensureAnalyzed runs the first analysis lazily, so the symbol tools work
// without an explicit php_analyze call.
func (s *Server) ensureAnalyzed(ctx context.Context) error {
	if s.analyzer.Table() != nil {
		return nil
	}
	_, err := s.refresh(ctx)
	return err
}

// ensureIndexed additionally covers an analyzer that had already run before
// the server was created: its table exists but was never indexed here.
func (s *Server) ensureIndexed(ctx context.Context) error {
	if err := s.ensureAnalyzed(ctx); err != nil {
		return err
	}
	if s.index.Built() {
		return nil
	}
	return s.index.Rebuild(ctx, s.analyzer.Table())
}
