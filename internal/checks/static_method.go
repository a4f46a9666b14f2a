package checks

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedStaticMethod reports Foo::bar() calls where Foo resolves to a
// class whose methods are fully known and bar is not among them, its
// ancestors' included. Any uncertainty about the class or its hierarchy
// suppresses the report.
type UndefinedStaticMethod struct{}

func (UndefinedStaticMethod) ID() string { return "staticMethod.notFound" }

func (UndefinedStaticMethod) Description() string {
	return "Detects calls to undefined static methods"
}

func (UndefinedStaticMethod) Level() int { return 0 }

func (UndefinedStaticMethod) Check(file *phpast.File, ctx *Context) []issue.Issue {
	var issues []issue.Issue
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() != "scoped_call_expression" {
			return true
		}
		scope := n.ChildByFieldName("scope")
		method := n.ChildByFieldName("name")
		// self::, static:: and parent:: parse as relative_scope and
		// dynamic class or method parts as variables; only literal
		// Class::method() pairs can be judged.
		if scope == nil || !phpast.IsNameNode(scope) {
			return true
		}
		if method == nil || method.Kind() != "name" {
			return true
		}

		className := phpast.Text(scope, file.Source)
		if strings.ContainsAny(className, "$(") {
			return true
		}
		resolved := ctx.Scope.ResolveClassName(className)
		if isBuiltinClass(className) || isBuiltinClass(phpast.ShortName(resolved)) {
			return true
		}

		methodName := phpast.Text(method, file.Source)
		if ctx.classHasMethod(resolved, methodName).IsNo() && !ctx.classHasMethod(resolved, "__callStatic").IsYes() {
			line, col := phpast.Position(method)
			issues = append(issues, issue.NewError(
				"staticMethod.notFound",
				fmt.Sprintf("Call to an undefined static method %s::%s().", resolved, methodName),
				file.Path, line, col,
			).WithIdentifier("staticMethod.notFound"))
		}
		return true
	})
	return issues
}
