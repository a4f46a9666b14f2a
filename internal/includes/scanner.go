// Package includes statically resolves require/include targets so that
// symbols declared in directly included files participate in analysis even
// when no autoloader covers them.
package includes

import (
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/phpast"
)

// Scan extracts the include targets of a parsed file that can be resolved
// statically: bare string literals, __DIR__ concatenated with literals, and
// multi-segment concatenation chains of the same shape. Targets are joined
// to the including file's directory, normalized, and reported only when
// they exist on disk. Dynamic path expressions are skipped. Duplicate
// targets collapse to one entry; order of first appearance is preserved.
func Scan(file *phpast.File) []string {
	return scanIn(file, "")
}

// scanIn is Scan with an explicit probe base for files whose Path is
// relative to rootDir rather than to the working directory.
func scanIn(file *phpast.File, rootDir string) []string {
	s := &scanner{
		source: file.Source,
		dir:    filepath.Dir(file.Path),
		root:   rootDir,
		seen:   make(map[string]bool),
	}

	phpast.Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "require_expression", "require_once_expression",
			"include_expression", "include_once_expression":
			if n.NamedChildCount() > 0 {
				s.record(n.NamedChild(0))
			}
		}
		return true
	})
	return s.found
}

type scanner struct {
	source []byte
	dir    string
	root   string
	seen   map[string]bool
	found  []string
}

func (s *scanner) record(expr *sitter.Node) {
	path, ok := s.resolve(expr)
	if !ok {
		return
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	path = filepath.Clean(path)

	if s.seen[path] {
		return
	}
	probe := path
	if !filepath.IsAbs(probe) && s.root != "" {
		probe = filepath.Join(s.root, probe)
	}
	if _, err := os.Stat(probe); err != nil {
		return
	}
	s.seen[path] = true
	s.found = append(s.found, path)
}

func (s *scanner) resolve(expr *sitter.Node) (string, bool) {
	expr = phpast.Unwrap(expr)

	if content, ok := phpast.StringLiteral(expr, s.source); ok {
		return content, true
	}
	if left, right, ok := concatOperands(expr, s.source); ok {
		return s.resolveConcat(left, right)
	}
	return "", false
}

func (s *scanner) resolveConcat(left, right *sitter.Node) (string, bool) {
	left = phpast.Unwrap(left)
	right = phpast.Unwrap(right)

	var base string
	switch {
	case strings.TrimSpace(phpast.Text(left, s.source)) == "__DIR__":
		// record joins relative targets to the file's directory, so
		// __DIR__ reduces to the current directory marker.
		base = "."
	default:
		if content, ok := phpast.StringLiteral(left, s.source); ok {
			base = content
			break
		}
		if l, r, ok := concatOperands(left, s.source); ok {
			resolved, ok := s.resolveConcat(l, r)
			if !ok {
				return "", false
			}
			base = resolved
			break
		}
		return "", false
	}

	if content, ok := phpast.StringLiteral(right, s.source); ok {
		return filepath.Join(base, content), true
	}
	if l, r, ok := concatOperands(right, s.source); ok {
		resolved, ok := s.resolveConcat(l, r)
		if !ok {
			return "", false
		}
		return filepath.Join(base, resolved), true
	}
	return "", false
}

// concatOperands unpacks a string concatenation expression into its two
// sides. Any other binary operator fails the match.
func concatOperands(node *sitter.Node, source []byte) (left, right *sitter.Node, ok bool) {
	if node.Kind() != "binary_expression" {
		return nil, nil, false
	}
	op := node.ChildByFieldName("operator")
	if op == nil || phpast.Text(op, source) != "." {
		return nil, nil, false
	}
	left = node.ChildByFieldName("left")
	right = node.ChildByFieldName("right")
	if left == nil || right == nil {
		return nil, nil, false
	}
	return left, right, true
}
