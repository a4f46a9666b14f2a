package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/config"
)

// Test Plan for the tool handlers:
// - php_analyze runs a full analysis and reports issues with locations
// - php_analyze with paths re-analyzes only those files
// - php_analyze truncates the issue list to the limit, keeping the total
// - php_symbol resolves classes, functions and constants, case rules per kind
// - php_symbol validates its arguments and reports misses as found=false
// - php_symbol_search analyzes lazily on first use and honors the kind filter
// - NewServer requires an analyzer

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeTestProject lays out a two-file project: app.php declares helper()
// and calls two undefined functions, greeter.php declares a class and a
// constant.
func writeTestProject(t *testing.T, rootDir string) {
	t.Helper()

	writeTestFile(t, filepath.Join(rootDir, "app.php"), `<?php
function helper($x) {
}
missing_one();
missing_two();
`)
	writeTestFile(t, filepath.Join(rootDir, "greeter.php"), `<?php
class Greeter {
    public static function greet($name, $suffix = '!') {
    }
    public function hello() {
    }
}
const GREETING = 'hi';
`)
}

func newTestServer(t *testing.T, rootDir string) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Cache.Enabled = false

	a, err := analyzer.New(analyzer.Options{
		RootDir: rootDir,
		Config:  cfg,
		Level:   0,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	s, err := NewServer(Options{Analyzer: a})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// decodeToolResponse parses the JSON text content of a successful tool
// result into target.
func decodeToolResponse(t *testing.T, result *mcp.CallToolResult, target interface{}) {
	t.Helper()

	require.NotNil(t, result)
	require.False(t, result.IsError)
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), target))
}

// errorText returns the message of an error tool result.
func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.True(t, result.IsError)
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return textContent.Text
}

func TestNewServer_RequiresAnalyzer(t *testing.T) {
	t.Parallel()

	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestAnalyzeHandler_FullRun(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createAnalyzeHandler(s)
	result, err := handler(context.Background(), newToolRequest(nil))
	require.NoError(t, err)

	var response AnalyzeResponse
	decodeToolResponse(t, result, &response)

	assert.NotEmpty(t, response.RunID)
	assert.Equal(t, 0, response.Level)
	assert.Equal(t, 2, response.FilesTotal)
	assert.Equal(t, 2, response.FilesAnalyzed)
	assert.Equal(t, 2, response.Errors)
	assert.Equal(t, 2, response.IssuesTotal)
	assert.False(t, response.Truncated)

	require.Len(t, response.Issues, 2)
	// Test: issues arrive sorted by location with 1-based lines.
	assert.Equal(t, "app.php", response.Issues[0].File)
	assert.Equal(t, 4, response.Issues[0].Line)
	assert.Equal(t, "function.notFound", response.Issues[0].Identifier)
	assert.Equal(t, "Function missing_one not found.", response.Issues[0].Message)
	assert.Equal(t, 5, response.Issues[1].Line)
}

func TestAnalyzeHandler_PathsArgument(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	// Seed the project state with a full run.
	handler := createAnalyzeHandler(s)
	_, err := handler(context.Background(), newToolRequest(nil))
	require.NoError(t, err)

	// One of the two undefined calls goes away.
	writeTestFile(t, filepath.Join(rootDir, "app.php"), `<?php
function helper($x) {
}
missing_one();
`)

	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"paths": []interface{}{"app.php"},
	}))
	require.NoError(t, err)

	var response AnalyzeResponse
	decodeToolResponse(t, result, &response)

	assert.Equal(t, 2, response.FilesTotal)
	assert.Equal(t, 1, response.FilesAnalyzed)
	assert.Equal(t, 1, response.IssuesTotal)
	require.Len(t, response.Issues, 1)
	assert.Equal(t, "app.php", response.Issues[0].File)
	assert.Equal(t, 4, response.Issues[0].Line)
	assert.Equal(t, "Function missing_one not found.", response.Issues[0].Message)
}

func TestAnalyzeHandler_TruncatesIssues(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createAnalyzeHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"limit": float64(1),
	}))
	require.NoError(t, err)

	var response AnalyzeResponse
	decodeToolResponse(t, result, &response)

	assert.Equal(t, 2, response.IssuesTotal)
	assert.Len(t, response.Issues, 1)
	assert.True(t, response.Truncated)
}

func TestSymbolHandler_Class(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": "Greeter",
	}))
	require.NoError(t, err)

	var response SymbolResponse
	decodeToolResponse(t, result, &response)

	assert.True(t, response.Found)
	assert.Equal(t, "class", response.Kind)
	require.NotNil(t, response.Class)
	assert.Equal(t, "Greeter", response.Class.FullName)
	assert.Equal(t, "greeter.php", response.Class.File)
	assert.Equal(t, 2, response.Class.Line)
	assert.True(t, response.Class.MembersComplete)

	require.Len(t, response.Class.Methods, 2)
	greet := response.Class.Methods[0]
	assert.Equal(t, "greet", greet.Name)
	assert.True(t, greet.Static)
	assert.Equal(t, 1, greet.RequiredArgs)
	require.NotNil(t, greet.MaxArgs)
	assert.Equal(t, 2, *greet.MaxArgs)

	hello := response.Class.Methods[1]
	assert.Equal(t, "hello", hello.Name)
	assert.False(t, hello.Static)
	assert.Equal(t, 0, hello.RequiredArgs)
}

func TestSymbolHandler_ClassCaseInsensitive(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": `\GREETER`,
	}))
	require.NoError(t, err)

	var response SymbolResponse
	decodeToolResponse(t, result, &response)

	assert.True(t, response.Found)
	require.NotNil(t, response.Class)
	// Test: the entry keeps its declared casing.
	assert.Equal(t, "Greeter", response.Class.FullName)
}

func TestSymbolHandler_Function(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": "helper",
		"kind": "function",
	}))
	require.NoError(t, err)

	var response SymbolResponse
	decodeToolResponse(t, result, &response)

	assert.True(t, response.Found)
	assert.Equal(t, "function", response.Kind)
	require.NotNil(t, response.Function)
	assert.Equal(t, "helper", response.Function.FullName)
	assert.Equal(t, "app.php", response.Function.File)
	assert.Equal(t, 2, response.Function.Line)
	assert.Equal(t, 1, response.Function.RequiredArgs)
	require.NotNil(t, response.Function.MaxArgs)
	assert.Equal(t, 1, *response.Function.MaxArgs)
	require.Len(t, response.Function.Parameters, 1)
	assert.Equal(t, "x", response.Function.Parameters[0].Name)
}

func TestSymbolHandler_Constant(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": "GREETING",
	}))
	require.NoError(t, err)

	var response SymbolResponse
	decodeToolResponse(t, result, &response)
	assert.True(t, response.Found)
	assert.Equal(t, "constant", response.Kind)
	require.NotNil(t, response.Constant)
	assert.Equal(t, "GREETING", response.Constant.Name)

	// Test: constant lookup is case-sensitive, matching PHP.
	result, err = handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": "greeting",
		"kind": "constant",
	}))
	require.NoError(t, err)

	var miss SymbolResponse
	decodeToolResponse(t, result, &miss)
	assert.False(t, miss.Found)
}

func TestSymbolHandler_NotFound(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": `Nope\Missing`,
	}))
	require.NoError(t, err)

	var response SymbolResponse
	decodeToolResponse(t, result, &response)
	assert.False(t, response.Found)
	assert.Empty(t, response.Kind)
}

func TestSymbolHandler_ArgumentValidation(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolHandler(s)

	result, err := handler(context.Background(), newToolRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "name parameter is required")

	result, err = handler(context.Background(), newToolRequest(map[string]interface{}{
		"name": "Greeter",
		"kind": "method",
	}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "kind must be")
}

func TestSymbolSearchHandler_LazyAnalysis(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	// Test: no php_analyze call has happened, the handler analyzes itself.
	handler := createSymbolSearchHandler(s)
	result, err := handler(context.Background(), newToolRequest(map[string]interface{}{
		"query": "greeter",
		"kind":  "class",
	}))
	require.NoError(t, err)

	var response SymbolSearchResponse
	decodeToolResponse(t, result, &response)

	require.Equal(t, 1, response.Total)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "Greeter", response.Results[0].FQN)
	assert.Equal(t, "class", response.Results[0].Kind)
	assert.Equal(t, "greeter.php", response.Results[0].File)
	assert.Equal(t, 2, response.Results[0].Line)
	assert.Greater(t, response.Results[0].Score, 0.0)
}

func TestSymbolSearchHandler_ArgumentValidation(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeTestProject(t, rootDir)
	s := newTestServer(t, rootDir)

	handler := createSymbolSearchHandler(s)

	result, err := handler(context.Background(), newToolRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "query parameter is required")

	result, err = handler(context.Background(), newToolRequest(map[string]interface{}{
		"query": "greeter",
		"kind":  "method",
	}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "kind must be")
}
