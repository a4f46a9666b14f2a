package checks

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
	"github.com/mvp-joe/phpscan/internal/symbols"
)

// ArgumentCount reports calls whose argument count falls outside the
// bounds of the callee's parameter list: fewer than the required
// parameters always, more than the declared maximum from level 2 up.
// Constructors declared in the file are held to the same bounds.
type ArgumentCount struct{}

func (ArgumentCount) ID() string { return "arguments.count" }

func (ArgumentCount) Description() string {
	return "Detects calls with too few or too many arguments"
}

func (ArgumentCount) Level() int { return 0 }

func (ArgumentCount) Check(file *phpast.File, ctx *Context) []issue.Issue {
	var issues []issue.Issue
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_call_expression":
			if iss, ok := checkCallArguments(file, ctx, n); ok {
				issues = append(issues, iss)
			}
		case "object_creation_expression":
			if iss, ok := checkConstructorArguments(file, ctx, n); ok {
				issues = append(issues, iss)
			}
		}
		return true
	})
	return issues
}

func checkCallArguments(file *phpast.File, ctx *Context, call *sitter.Node) (issue.Issue, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "name" {
		return issue.Issue{}, false
	}
	name := phpast.Text(fn, file.Source)
	// Built-in signatures are not modeled, so their calls are not judged.
	if isBuiltinFunction(name) || isFrameworkFunction(name) {
		return issue.Issue{}, false
	}

	sig := resolveSignature(ctx, name)
	if sig == nil {
		return issue.Issue{}, false
	}
	count, countable := argumentCount(call.ChildByFieldName("arguments"))
	if !countable {
		return issue.Issue{}, false
	}

	if expected, bad := boundsViolation(ctx, sig.RequiredArgs(), sig.MaxArgs, count); bad {
		line, col := phpast.Position(fn)
		return issue.NewError(
			"arguments.count",
			fmt.Sprintf("Function %s invoked with %d parameter%s, %d required.",
				name, count, plural(count), expected),
			file.Path, line, col,
		).WithIdentifier("arguments.count"), true
	}
	return issue.Issue{}, false
}

func checkConstructorArguments(file *phpast.File, ctx *Context, n *sitter.Node) (issue.Issue, bool) {
	var nameNode *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(uint(i)); phpast.IsNameNode(child) {
			nameNode = child
			break
		}
	}
	if nameNode == nil {
		return issue.Issue{}, false
	}
	name := phpast.Text(nameNode, file.Source)
	if isBuiltinClass(name) {
		return issue.Issue{}, false
	}

	class, ok := ctx.Scope.LocalClass(name)
	if !ok {
		return issue.Issue{}, false
	}
	ctor, ok := class.Method("__construct")
	if !ok {
		return issue.Issue{}, false
	}
	count, countable := argumentCount(phpast.ChildOfKind(n, "arguments"))
	if !countable {
		return issue.Issue{}, false
	}

	if expected, bad := boundsViolation(ctx, ctor.RequiredArgs(), ctor.MaxArgs, count); bad {
		line, col := phpast.Position(nameNode)
		return issue.NewError(
			"arguments.count",
			fmt.Sprintf("Class %s constructor invoked with %d parameter%s, %d required.",
				class.Name, count, plural(count), expected),
			file.Path, line, col,
		).WithIdentifier("arguments.count"), true
	}
	return issue.Issue{}, false
}

// resolveSignature finds the called function's declaration, preferring
// the current file, then the current namespace, then the global one.
func resolveSignature(ctx *Context, name string) *symbols.FunctionInfo {
	if fn, ok := ctx.Scope.LocalFunction(name); ok {
		return fn
	}
	if ns := ctx.Scope.Namespace(); ns != "" {
		if fn, ok := ctx.Table.Function(ns + `\` + name); ok {
			return fn
		}
	}
	if fn, ok := ctx.Table.Function(name); ok {
		return fn
	}
	return nil
}

// boundsViolation returns the bound that a call with count arguments
// violates. Calls with too many arguments are only reported from level 2
// up, matching the cumulative strictness of the levels.
func boundsViolation(ctx *Context, required int, maxArgs func() (int, bool), count int) (int, bool) {
	if count < required {
		return required, true
	}
	if max, ok := maxArgs(); ok && count > max && ctx.Level >= 2 {
		return max, true
	}
	return 0, false
}

// argumentCount counts argument nodes. Spread arguments make the true
// count unknowable statically, so such calls are left alone.
func argumentCount(args *sitter.Node) (count int, countable bool) {
	if args == nil {
		return 0, true
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(uint(i))
		if child.Kind() != "argument" {
			continue
		}
		if phpast.ChildOfKind(child, "variadic_unpacking") != nil {
			return 0, false
		}
		count++
	}
	return count, true
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
