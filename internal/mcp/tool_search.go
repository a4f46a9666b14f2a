package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultSearchLimit = 15
	maxSearchLimit     = 100
)

// AddSymbolSearchTool registers the php_symbol_search tool with an MCP
// server.
func AddSymbolSearchTool(m *server.MCPServer, s *Server) {
	tool := mcp.NewTool(
		"php_symbol_search",
		mcp.WithDescription("Search declared PHP symbols by name and return ranked matches. The query uses full-text syntax over the 'fqn', 'name' and 'file' fields, with support for boolean operators, wildcards and fuzzy matching (e.g. 'UserRepository', 'name:render*', 'controller~1')."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query over symbol names (e.g. 'user', 'name:Repository', 'file:src')")),
		mcp.WithString("kind",
			mcp.Description("Filter by symbol kind: 'class', 'interface', 'trait', 'enum' or 'function'. Leave empty to search all kinds.")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (1-100, default: 15)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	m.AddTool(tool, createSymbolSearchHandler(s))
}

// createSymbolSearchHandler creates the handler function for the
// php_symbol_search tool.
func createSymbolSearchHandler(s *Server) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap := request.GetArguments()

		queryStr, err := parseStringArg(argsMap, "query", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		kind, err := parseStringArg(argsMap, "kind", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		switch kind {
		case "", "class", "interface", "trait", "enum", "function":
		default:
			return mcp.NewToolResultError("kind must be 'class', 'interface', 'trait', 'enum' or 'function'"), nil
		}

		limit := parseClampedInt(argsMap, "limit", defaultSearchLimit, 1, maxSearchLimit)

		if err := s.ensureIndexed(ctx); err != nil {
			return nil, err
		}

		results, err := s.index.Search(ctx, queryStr, kind, limit)
		if err != nil {
			return nil, err
		}

		return marshalToolResponse(&SymbolSearchResponse{
			Results: results,
			Total:   len(results),
		})
	}
}
