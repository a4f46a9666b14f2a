package checks

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedMethod reports $this->method() calls that no method in the
// enclosing class or its known ancestors satisfies. Only $this receivers
// are checked; the type of other objects is not tracked. Traits are
// skipped too, their effective method set depends on the using class.
type UndefinedMethod struct{}

func (UndefinedMethod) ID() string { return "method.notFound" }

func (UndefinedMethod) Description() string {
	return "Detects calls to undefined methods on $this"
}

func (UndefinedMethod) Level() int { return 2 }

func (UndefinedMethod) Check(file *phpast.File, ctx *Context) []issue.Issue {
	var out []issue.Issue
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() != "class_declaration" {
			return true
		}
		name := n.ChildByFieldName("name")
		body := n.ChildByFieldName("body")
		if name == nil || body == nil {
			return true
		}
		className := phpast.Text(name, file.Source)
		fqn := className
		if ns := ctx.Scope.Namespace(); ns != "" {
			fqn = ns + `\` + className
		}
		out = append(out, checkThisCalls(file, ctx, body, fqn)...)
		return false
	})
	return out
}

func checkThisCalls(file *phpast.File, ctx *Context, body *sitter.Node, fqn string) []issue.Issue {
	var out []issue.Issue
	phpast.Walk(body, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "anonymous_function":
			// Closures keep the enclosing $this, so keep walking.
			return true
		case "object_creation_expression":
			// Anonymous class bodies rebind $this.
			if phpast.ChildOfKind(n, "declaration_list") != nil {
				return false
			}
			return true
		case "member_call_expression":
		default:
			return true
		}

		object := n.ChildByFieldName("object")
		method := n.ChildByFieldName("name")
		if object == nil || method == nil {
			return true
		}
		if object.Kind() != "variable_name" || phpast.Text(object, file.Source) != "$this" {
			return true
		}
		if method.Kind() != "name" {
			// $this->$name() is dynamic.
			return true
		}
		methodName := phpast.Text(method, file.Source)
		if ctx.classHasMethod(fqn, methodName).IsNo() && !ctx.classHasMethod(fqn, "__call").IsYes() {
			line, col := phpast.Position(method)
			out = append(out, issue.NewError(
				"method.notFound",
				fmt.Sprintf("Call to an undefined method %s::%s().", fqn, methodName),
				file.Path, line, col,
			).WithIdentifier("method.notFound"))
		}
		return true
	})
	return out
}
