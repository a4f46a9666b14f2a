package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/phpscan/internal/symbols"
)

// AddSymbolTool registers the php_symbol tool with an MCP server.
func AddSymbolTool(m *server.MCPServer, s *Server) {
	tool := mcp.NewTool(
		"php_symbol",
		mcp.WithDescription("Look up one declared PHP symbol by fully-qualified name. Class and function lookup is case-insensitive, constant lookup is case-sensitive, matching PHP. For class-likes the result includes the parent, interfaces, traits, methods and static properties the analyzer collected; for functions the full signature."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Fully-qualified symbol name (e.g. 'App\\\\Repository\\\\UserRepository', 'array_map', 'PHP_EOL'). A leading backslash is accepted.")),
		mcp.WithString("kind",
			mcp.Description("Restrict the lookup: 'class' (also covers interfaces, traits and enums), 'function' or 'constant'. Leave empty to try classes, then functions, then constants.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	m.AddTool(tool, createSymbolHandler(s))
}

// createSymbolHandler creates the handler function for the php_symbol tool.
func createSymbolHandler(s *Server) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap := request.GetArguments()

		name, err := parseStringArg(argsMap, "name", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		kind, err := parseStringArg(argsMap, "kind", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		switch kind {
		case "", "class", "function", "constant":
		default:
			return mcp.NewToolResultError("kind must be 'class', 'function' or 'constant'"), nil
		}

		if err := s.ensureAnalyzed(ctx); err != nil {
			return nil, fmt.Errorf("analysis failed: %w", err)
		}

		return marshalToolResponse(lookupSymbol(s.analyzer.Table(), name, kind))
	}
}

// lookupSymbol resolves a name against the table, trying classes, functions
// and constants in that order unless kind narrows the search.
func lookupSymbol(table *symbols.Table, name, kind string) *SymbolResponse {
	trimmed := strings.TrimPrefix(name, `\`)
	response := &SymbolResponse{Query: name}

	if kind == "" || kind == "class" {
		if info, ok := table.Class(trimmed); ok {
			response.Found = true
			response.Kind = info.Kind.String()
			response.Class = classSymbol(info)
			return response
		}
	}
	if kind == "" || kind == "function" {
		if info, ok := table.Function(trimmed); ok {
			response.Found = true
			response.Kind = "function"
			response.Function = functionSymbol(info)
			return response
		}
	}
	if kind == "" || kind == "constant" {
		if table.ConstantExists(trimmed) {
			response.Found = true
			response.Kind = "constant"
			response.Constant = &ConstantSymbol{Name: trimmed}
			return response
		}
	}
	return response
}

func classSymbol(info *symbols.ClassInfo) *ClassSymbol {
	names := info.MethodNames()
	methods := make([]MethodSymbol, 0, len(names))
	for _, name := range names {
		method, ok := info.Method(name)
		if !ok {
			continue
		}
		sym := MethodSymbol{
			Name:         method.Name,
			Static:       method.IsStatic,
			RequiredArgs: method.RequiredArgs(),
		}
		if max, bounded := method.MaxArgs(); bounded {
			sym.MaxArgs = &max
		}
		methods = append(methods, sym)
	}

	return &ClassSymbol{
		Name:             info.Name,
		FullName:         info.FullName,
		Namespace:        info.Namespace,
		Kind:             info.Kind.String(),
		Parent:           info.Parent,
		Interfaces:       info.Interfaces,
		Traits:           info.Traits,
		File:             info.File,
		Line:             info.Line,
		Methods:          methods,
		StaticProperties: info.StaticPropertyNames(),
		MembersComplete:  info.MethodsKnown(),
	}
}

func functionSymbol(info *symbols.FunctionInfo) *FunctionSymbol {
	parameters := make([]ParameterSymbol, 0, len(info.Parameters))
	for _, p := range info.Parameters {
		parameters = append(parameters, ParameterSymbol{
			Name:        p.Name,
			Type:        p.Type,
			HasDefault:  p.HasDefault,
			Variadic:    p.Variadic,
			ByReference: p.ByReference,
		})
	}

	sym := &FunctionSymbol{
		Name:             info.Name,
		FullName:         info.FullName,
		Namespace:        info.Namespace,
		File:             info.File,
		Line:             info.Line,
		Parameters:       parameters,
		RequiredArgs:     info.RequiredArgs(),
		ReturnType:       info.ReturnType,
		ReturnsReference: info.ReturnsReference,
	}
	if max, bounded := info.MaxArgs(); bounded {
		sym.MaxArgs = &max
	}
	return sym
}
