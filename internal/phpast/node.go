package phpast

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Text extracts the source text of a node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Position returns the 1-based line and column of a node's start.
func Position(node *sitter.Node) (line, column int) {
	p := node.StartPosition()
	return int(p.Row) + 1, int(p.Column) + 1
}

// Walk visits nodes depth-first. Returning false from the visitor skips the
// node's children; siblings are still visited.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visit(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(uint(i)), visit)
	}
}

// ChildOfKind finds the first direct child with the given kind.
func ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// ChildrenOfKind finds all direct children with the given kind.
func ChildrenOfKind(node *sitter.Node, kind string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			results = append(results, child)
		}
	}
	return results
}

// Unwrap strips parenthesized_expression wrappers.
func Unwrap(node *sitter.Node) *sitter.Node {
	for node != nil && node.Kind() == "parenthesized_expression" {
		inner := node.NamedChild(0)
		if inner == nil {
			return node
		}
		node = inner
	}
	return node
}

// IsNameNode reports whether the node is a plain or qualified name.
func IsNameNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	kind := node.Kind()
	return kind == "name" || kind == "qualified_name"
}

// StringLiteral returns the literal content of a single- or double-quoted
// string node without its quotes. The second result is false when the node
// is not a string or contains interpolation.
func StringLiteral(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}

	switch node.Kind() {
	case "string", "encapsed_string":
		// Interpolated strings have children beyond quotes and raw content.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(uint(i))
			if child.Kind() != "string_content" && child.Kind() != "escape_sequence" {
				return "", false
			}
		}
		text := Text(node, source)
		if len(text) >= 2 && (text[0] == '\'' || text[0] == '"') {
			return text[1 : len(text)-1], true
		}
		return text, true
	default:
		return "", false
	}
}

// ShortName returns the last backslash-separated segment of a PHP name.
func ShortName(name string) string {
	if idx := strings.LastIndexByte(name, '\\'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
