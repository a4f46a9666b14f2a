package checks

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedConstant reports reads of constants that no const declaration,
// define() call, import or table entry accounts for. Matching against
// local and built-in names is case-insensitive so misspelled case is not
// reported as a missing constant.
type UndefinedConstant struct{}

func (UndefinedConstant) ID() string          { return "constant.notFound" }
func (UndefinedConstant) Description() string { return "Detects references to undefined constants" }
func (UndefinedConstant) Level() int          { return 0 }

func (UndefinedConstant) Check(file *phpast.File, ctx *Context) []issue.Issue {
	defined := collectDefineCalls(file)

	var issues []issue.Issue
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "name", "qualified_name":
			name := phpast.Text(n, file.Source)
			if isConstantReference(n, file.Source) && !constantDefined(ctx, defined, name) {
				line, col := phpast.Position(n)
				issues = append(issues, issue.NewError(
					"constant.notFound",
					fmt.Sprintf("Constant %s not found.", name),
					file.Path, line, col,
				).WithIdentifier("constant.notFound"))
			}
			return false
		}
		return true
	})
	return issues
}

// collectDefineCalls gathers the names passed as the first argument of
// define() calls with a literal name.
func collectDefineCalls(file *phpast.File) map[string]bool {
	names := make(map[string]bool)
	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() != "function_call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || !strings.EqualFold(phpast.Text(fn, file.Source), "define") {
			return true
		}
		args := n.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			return true
		}
		first := args.NamedChild(0)
		if first.Kind() == "argument" && first.NamedChildCount() > 0 {
			if name, ok := phpast.StringLiteral(first.NamedChild(0), file.Source); ok {
				names[strings.ToLower(name)] = true
			}
		}
		return true
	})
	return names
}

func constantDefined(ctx *Context, defines map[string]bool, name string) bool {
	switch strings.ToLower(name) {
	case "true", "false", "null":
		return true
	}
	if defines[strings.ToLower(name)] {
		return true
	}
	if isBuiltinConstant(name) {
		return true
	}
	if ctx.Scope.HasLocalConstant(name) {
		return true
	}
	if _, ok := ctx.Scope.ConstantImport(name); ok {
		return true
	}

	normalized := strings.TrimPrefix(name, `\`)
	if ctx.Table.ConstantExists(normalized) {
		return true
	}
	if ns := ctx.Scope.Namespace(); ns != "" && !strings.Contains(normalized, `\`) {
		if ctx.Table.ConstantExists(ns + `\` + normalized) {
			return true
		}
	}
	return false
}

// isConstantReference reports whether a name node is read as a constant.
// Names serve many other roles, so the surrounding node decides: call
// targets, class references, declarations, imports and member names are
// all excluded, and what remains is a constant access.
func isConstantReference(n *sitter.Node, source []byte) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "function_call_expression", "object_creation_expression",
		"scoped_call_expression", "scoped_property_access_expression",
		"class_constant_access_expression",
		"member_access_expression", "nullsafe_member_access_expression",
		"member_call_expression", "nullsafe_member_call_expression",
		"named_type", "base_clause", "class_interface_clause",
		"use_declaration", "use_as_clause", "use_instead_of_clause",
		"namespace_use_clause", "namespace_use_group_clause",
		"namespace_aliasing_clause", "namespace_name",
		"namespace_definition", "qualified_name",
		"class_declaration", "interface_declaration", "trait_declaration",
		"enum_declaration", "function_definition", "method_declaration",
		"attribute", "goto_statement", "named_label_statement":
		return false
	case "const_element", "enum_case":
		// The first name is the declared one; names in the value
		// expression are reads.
		return n.StartByte() != parent.NamedChild(0).StartByte()
	case "argument":
		// Named argument labels are not reads.
		if label := parent.ChildByFieldName("name"); label != nil && label.StartByte() == n.StartByte() {
			return false
		}
		return true
	case "binary_expression":
		op := parent.ChildByFieldName("operator")
		right := parent.ChildByFieldName("right")
		if op != nil && right != nil &&
			phpast.Text(op, source) == "instanceof" && right.StartByte() == n.StartByte() {
			return false
		}
		return true
	}
	return true
}
