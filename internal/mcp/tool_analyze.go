package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/issue"
)

const (
	defaultIssueLimit = 100
	maxIssueLimit     = 500
)

// AddAnalyzeTool registers the php_analyze tool with an MCP server. The
// registration is composable with the other tool registrations.
func AddAnalyzeTool(m *server.MCPServer, s *Server) {
	tool := mcp.NewTool(
		"php_analyze",
		mcp.WithDescription("Run PHP static analysis and return the issues found, each with file, line and column. Without arguments the whole project is analyzed. With paths, only those files are re-analyzed against the current symbol table and only their issues are reported."),
		mcp.WithArray("paths",
			mcp.Description("PHP file paths to re-analyze, project-relative or absolute. Leave empty to analyze the whole project.")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of issues to return (1-500, default: 100). issues_total always reports the full count.")),
		mcp.WithDestructiveHintAnnotation(false),
	)

	m.AddTool(tool, createAnalyzeHandler(s))
}

// createAnalyzeHandler creates the handler function for the php_analyze
// tool.
func createAnalyzeHandler(s *Server) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap := request.GetArguments()
		paths := parseArrayArg(argsMap, "paths")
		limit := parseClampedInt(argsMap, "limit", defaultIssueLimit, 1, maxIssueLimit)

		var report *analyzer.Report
		var err error
		if len(paths) > 0 {
			report, err = s.analyzer.RunPaths(ctx, paths)
		} else {
			report, err = s.analyzer.Run(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("analysis failed: %w", err)
		}

		// Declarations may have changed, so the search index follows.
		if err := s.index.Rebuild(ctx, s.analyzer.Table()); err != nil {
			return nil, err
		}

		return marshalToolResponse(newAnalyzeResponse(report, limit))
	}
}

// newAnalyzeResponse converts a report to the tool response, truncating the
// issue list to limit.
func newAnalyzeResponse(report *analyzer.Report, limit int) *AnalyzeResponse {
	issues := report.Issues
	if issues == nil {
		issues = []issue.Issue{}
	}

	truncated := false
	if len(issues) > limit {
		issues = issues[:limit]
		truncated = true
	}

	return &AnalyzeResponse{
		RunID:         report.RunID,
		Level:         report.Level,
		FilesTotal:    report.FilesTotal,
		FilesAnalyzed: report.FilesAnalyzed,
		FilesReused:   report.FilesReused,
		Errors:        report.ErrorCount(),
		Warnings:      report.WarningCount(),
		IssuesIgnored: report.IssuesIgnored,
		IssuesTotal:   len(report.Issues),
		Issues:        issues,
		Truncated:     truncated,
		DurationMS:    report.Duration.Milliseconds(),
	}
}
