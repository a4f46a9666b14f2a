package checks

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedClass reports references to classes, interfaces, traits and
// enums that cannot be resolved through built-ins, the file's own
// declarations, its imports or the project table. References are checked
// everywhere a class name can appear: instantiation, static access,
// instanceof, extends and implements clauses, trait use, and type hints
// on parameters, returns, properties and catch clauses.
type UndefinedClass struct{}

func (UndefinedClass) ID() string          { return "class.notFound" }
func (UndefinedClass) Description() string { return "Detects references to undefined classes" }
func (UndefinedClass) Level() int          { return 0 }

func (UndefinedClass) Check(file *phpast.File, ctx *Context) []issue.Issue {
	c := &classChecker{file: file, ctx: ctx}
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "object_creation_expression":
			// Only literal names; new $class and new (expr) are dynamic.
			c.checkNameChild(n)
		case "scoped_call_expression", "scoped_property_access_expression":
			// self, static and parent parse as relative_scope, so the
			// kind filter inside skips them.
			c.checkNode(n.ChildByFieldName("scope"))
		case "class_constant_access_expression":
			c.checkNode(n.NamedChild(0))
		case "binary_expression":
			if op := n.ChildByFieldName("operator"); op != nil && phpast.Text(op, file.Source) == "instanceof" {
				c.checkNode(n.ChildByFieldName("right"))
			}
		case "base_clause", "class_interface_clause", "use_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c.checkNode(n.NamedChild(uint(i)))
			}
		case "named_type":
			// Covers parameter, return and property hints plus catch
			// clause type lists. Scalar hints mostly parse as
			// primitive_type, but grammar revisions disagree on a few
			// keywords, so they are filtered here as well.
			if name := phpast.Text(n, file.Source); !isScalarTypeHint(name) {
				c.checkName(name, n)
			}
			return false
		}
		return true
	})
	return c.issues
}

type classChecker struct {
	file   *phpast.File
	ctx    *Context
	issues []issue.Issue
}

// checkNameChild checks the first plain or qualified name child, the shape
// instantiation targets take.
func (c *classChecker) checkNameChild(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(uint(i))
		if phpast.IsNameNode(child) {
			c.checkName(phpast.Text(child, c.file.Source), child)
			return
		}
	}
}

func (c *classChecker) checkNode(n *sitter.Node) {
	if n == nil || !phpast.IsNameNode(n) {
		return
	}
	c.checkName(phpast.Text(n, c.file.Source), n)
}

// checkName runs the resolution cascade for one class reference, written
// exactly as it appears in source. The reference is fine as soon as any
// step resolves it; the issue message keeps the original spelling.
func (c *classChecker) checkName(name string, node *sitter.Node) {
	switch strings.ToLower(name) {
	case "", "self", "static", "parent":
		return
	}

	if strings.HasPrefix(name, `\`) {
		normalized := strings.TrimPrefix(name, `\`)
		if isBuiltinClass(normalized) || c.ctx.classKnown(normalized) {
			return
		}
		c.report(name, node)
		return
	}

	if strings.Contains(name, `\`) {
		first, rest, _ := strings.Cut(name, `\`)
		if prefix, ok := c.ctx.Scope.ClassImport(first); ok {
			resolved := prefix + `\` + rest
			if isBuiltinClass(phpast.ShortName(resolved)) || c.ctx.classKnown(resolved) {
				return
			}
		}
		if isBuiltinClass(phpast.ShortName(name)) || c.ctx.classKnown(name) {
			return
		}
		if ns := c.ctx.Scope.Namespace(); ns != "" && c.ctx.classKnown(ns+`\`+name) {
			return
		}
		c.report(name, node)
		return
	}

	// Simple name.
	if isBuiltinClass(name) {
		return
	}
	if _, ok := c.ctx.Scope.LocalClass(name); ok {
		return
	}
	if fqn, ok := c.ctx.Scope.ClassImport(name); ok {
		// An import satisfies the reference outright when nothing is
		// known about the project; with a populated table the target
		// has to actually exist.
		if c.ctx.Table.Stats().Classes == 0 {
			return
		}
		if isBuiltinClass(phpast.ShortName(fqn)) || c.ctx.classKnown(fqn) {
			return
		}
	}
	if c.ctx.classKnown(name) {
		return
	}
	if ns := c.ctx.Scope.Namespace(); ns != "" && c.ctx.classKnown(ns+`\`+name) {
		return
	}
	c.report(name, node)
}

func (c *classChecker) report(name string, node *sitter.Node) {
	line, col := phpast.Position(node)
	c.issues = append(c.issues, issue.NewError(
		"class.notFound",
		fmt.Sprintf("Class %s not found.", name),
		c.file.Path, line, col,
	).WithIdentifier("class.notFound"))
}
