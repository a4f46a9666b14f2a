package checks

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedStaticProperty reports Foo::$bar accesses where Foo resolves
// to a class whose static properties are fully known and $bar is not one
// of them. Property names are case sensitive, unlike method names.
type UndefinedStaticProperty struct{}

func (UndefinedStaticProperty) ID() string { return "staticProperty.notFound" }

func (UndefinedStaticProperty) Description() string {
	return "Detects access to undefined static properties"
}

func (UndefinedStaticProperty) Level() int { return 0 }

func (UndefinedStaticProperty) Check(file *phpast.File, ctx *Context) []issue.Issue {
	var issues []issue.Issue
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() != "scoped_property_access_expression" {
			return true
		}
		scope := n.ChildByFieldName("scope")
		prop := n.ChildByFieldName("name")
		if scope == nil || !phpast.IsNameNode(scope) {
			return true
		}
		// Foo::$$name is dynamic and parses as dynamic_variable_name.
		if prop == nil || prop.Kind() != "variable_name" {
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

		propName := strings.TrimPrefix(phpast.Text(prop, file.Source), "$")
		if ctx.classHasStaticProperty(resolved, propName).IsNo() {
			line, col := phpast.Position(prop)
			issues = append(issues, issue.NewError(
				"staticProperty.notFound",
				fmt.Sprintf("Access to an undefined static property %s::$%s.", resolved, propName),
				file.Path, line, col,
			).WithIdentifier("staticProperty.notFound"))
		}
		return true
	})
	return issues
}
