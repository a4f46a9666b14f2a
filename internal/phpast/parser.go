// Package phpast wraps tree-sitter PHP parsing behind the small surface the
// rest of the analyzer needs: parse a file, walk nodes, read node text, and
// map nodes to 1-based source positions.
package phpast

import (
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

var phpLanguage = sitter.NewLanguage(php.LanguagePHP())

// File is a parsed PHP source file. Close must be called to release the
// underlying tree once the file is no longer needed.
type File struct {
	Path   string
	Source []byte
	tree   *sitter.Tree
}

// ParseFile reads and parses a PHP file from disk.
func ParseFile(path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, source)
}

// Parse parses PHP source. A nil tree from tree-sitter means the file is
// unparseable; that is reported as an error so callers can skip the file.
func Parse(path string, source []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(phpLanguage)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}

	return &File{
		Path:   path,
		Source: source,
		tree:   tree,
	}, nil
}

// Root returns the root node of the parse tree.
func (f *File) Root() *sitter.Node {
	return f.tree.RootNode()
}

// HasSyntaxError reports whether the tree contains any error node.
// Such files still have a usable tree, but checks are not run on them.
func (f *File) HasSyntaxError() bool {
	return f.tree.RootNode().HasError()
}

// FirstErrorPosition returns the 1-based line and column of the first
// syntax error node, or (1, 1) when none can be located.
func (f *File) FirstErrorPosition() (int, int) {
	line, col := 1, 1
	found := false
	Walk(f.Root(), func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.IsError() || n.IsMissing() {
			line, col = Position(n)
			found = true
			return false
		}
		return true
	})
	return line, col
}

// Close releases the parse tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}
