package phpast

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the PHP parser wrapper:
// - Parses valid PHP source and exposes the root node
// - Reports 1-based positions for nodes
// - Detects syntax errors and locates the first one
// - Walk visits nodes pre-order and honors the skip-children signal
// - Text, ChildOfKind, ChildrenOfKind, Unwrap and StringLiteral behave
//   on real parse trees
// - ParseFile reads from disk and fails cleanly on missing files

func TestParse_ValidSource(t *testing.T) {
	t.Parallel()

	source := []byte("<?php\nfunction greet() {\n    return 'hello';\n}\n")
	file, err := Parse("greet.php", source)
	require.NoError(t, err)
	defer file.Close()

	require.NotNil(t, file.Root())
	assert.Equal(t, "program", file.Root().Kind())
	assert.False(t, file.HasSyntaxError())

	// Test: the function definition starts on line 2
	fn := ChildOfKind(file.Root(), "function_definition")
	require.NotNil(t, fn)
	line, col := Position(fn)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	nameNode := fn.ChildByFieldName("name")
	require.NotNil(t, nameNode)
	assert.Equal(t, "greet", Text(nameNode, source))
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	source := []byte("<?php\nfunction broken( {\n")
	file, err := Parse("broken.php", source)
	require.NoError(t, err)
	defer file.Close()

	assert.True(t, file.HasSyntaxError())

	line, col := file.FirstErrorPosition()
	assert.GreaterOrEqual(t, line, 1)
	assert.GreaterOrEqual(t, col, 1)
}

func TestParse_CleanSourceHasNoErrorPosition(t *testing.T) {
	t.Parallel()

	source := []byte("<?php $x = 1;\n")
	file, err := Parse("clean.php", source)
	require.NoError(t, err)
	defer file.Close()

	assert.False(t, file.HasSyntaxError())

	// Test: fallback position when nothing is wrong
	line, col := file.FirstErrorPosition()
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}

func TestParseFile_ReadsFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php class Sample {}\n"), 0o644))

	file, err := ParseFile(path)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, path, file.Path)
	assert.NotNil(t, ChildOfKind(file.Root(), "class_declaration"))
}

func TestParseFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.php"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.php")
}

func TestWalk_VisitsPreOrderAndSkips(t *testing.T) {
	t.Parallel()

	source := []byte("<?php\nfunction outer() {\n    $inside = 1;\n}\n$after = 2;\n")
	file, err := Parse("walk.php", source)
	require.NoError(t, err)
	defer file.Close()

	// Test: full walk sees variables inside the function body
	sawInside := false
	Walk(file.Root(), func(n *sitter.Node) bool {
		if n.Kind() == "variable_name" && Text(n, source) == "$inside" {
			sawInside = true
		}
		return true
	})
	assert.True(t, sawInside)

	// Test: skipping function bodies hides $inside but keeps $after
	sawInside = false
	sawAfter := false
	Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			return false
		case "variable_name":
			switch Text(n, source) {
			case "$inside":
				sawInside = true
			case "$after":
				sawAfter = true
			}
		}
		return true
	})
	assert.False(t, sawInside)
	assert.True(t, sawAfter)
}

func TestChildrenOfKind(t *testing.T) {
	t.Parallel()

	source := []byte("<?php\nclass A {}\nclass B {}\ninterface C {}\n")
	file, err := Parse("kinds.php", source)
	require.NoError(t, err)
	defer file.Close()

	classes := ChildrenOfKind(file.Root(), "class_declaration")
	assert.Len(t, classes, 2)

	interfaces := ChildrenOfKind(file.Root(), "interface_declaration")
	assert.Len(t, interfaces, 1)

	assert.Nil(t, ChildOfKind(file.Root(), "trait_declaration"))
}

func TestStringLiteral(t *testing.T) {
	t.Parallel()

	source := []byte("<?php\n$a = 'plain';\n$b = \"double\";\n$c = \"has $var\";\n")
	file, err := Parse("strings.php", source)
	require.NoError(t, err)
	defer file.Close()

	var literals []string
	var rejected int
	Walk(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "string", "encapsed_string":
			if text, ok := StringLiteral(n, source); ok {
				literals = append(literals, text)
			} else {
				rejected++
			}
			return false
		}
		return true
	})

	assert.Equal(t, []string{"plain", "double"}, literals)
	assert.Equal(t, 1, rejected, "interpolated string should be rejected")
}

func TestShortName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bar", ShortName("Foo\\Bar"))
	assert.Equal(t, "Baz", ShortName("\\App\\Util\\Baz"))
	assert.Equal(t, "Plain", ShortName("Plain"))
	assert.Equal(t, "", ShortName(""))
}
