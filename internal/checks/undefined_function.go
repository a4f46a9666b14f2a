package checks

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedFunction reports calls to functions that are neither built in,
// declared in the file, imported via "use function", nor known to the
// project table.
type UndefinedFunction struct{}

func (UndefinedFunction) ID() string          { return "function.notFound" }
func (UndefinedFunction) Description() string { return "Detects calls to undefined functions" }
func (UndefinedFunction) Level() int          { return 0 }

func (UndefinedFunction) Check(file *phpast.File, ctx *Context) []issue.Issue {
	var issues []issue.Issue
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() != "function_call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		// Qualified calls parse as qualified_name and dynamic calls as
		// variable_name or an expression; neither can be resolved without
		// runtime knowledge, so only bare names are checked.
		if fn == nil || fn.Kind() != "name" {
			return true
		}

		name := phpast.Text(fn, file.Source)
		if functionDefined(ctx, name) {
			return true
		}

		line, col := phpast.Position(fn)
		issues = append(issues, issue.NewError(
			"function.notFound",
			fmt.Sprintf("Function %s not found.", name),
			file.Path, line, col,
		).WithIdentifier("function.notFound"))
		return true
	})
	return issues
}

func functionDefined(ctx *Context, name string) bool {
	if isBuiltinFunction(name) || isFrameworkFunction(name) {
		return true
	}
	if _, ok := ctx.Scope.LocalFunction(name); ok {
		return true
	}
	if _, ok := ctx.Scope.FunctionImport(name); ok {
		return true
	}
	// Unqualified calls resolve against the current namespace first and
	// fall back to the global one.
	if ns := ctx.Scope.Namespace(); ns != "" && ctx.Table.FunctionExists(ns+`\`+name) {
		return true
	}
	return ctx.Table.FunctionExists(name)
}
