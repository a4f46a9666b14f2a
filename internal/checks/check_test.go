package checks

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
	"github.com/mvp-joe/phpscan/internal/symbols"
)

// Test Plan for the check engine:
// - A static call to a missing method on a fully known class is reported
//   with the exact message and token position
// - Broken files produce a single parse error and are not checked further
// - RunFile sorts issues by position regardless of check order
// - ForLevel keeps exactly the checks at or below the requested level and
//   raising the level never removes checks
// - Nil table and logger are tolerated

func parseSource(t *testing.T, source string) *phpast.File {
	t.Helper()
	file, err := phpast.Parse("test.php", []byte(source))
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file
}

func runCheckAtLevel(t *testing.T, c Check, source string, table *symbols.Table, level int) []issue.Issue {
	t.Helper()
	file := parseSource(t, source)
	if table == nil {
		table = symbols.NewTable()
	}
	ctx := &Context{
		Scope:  NewScope(file),
		Table:  table,
		Level:  level,
		Logger: slog.New(slog.DiscardHandler),
	}
	return c.Check(file, ctx)
}

func runCheck(t *testing.T, c Check, source string, table *symbols.Table) []issue.Issue {
	t.Helper()
	return runCheckAtLevel(t, c, source, table, 9)
}

func TestRunFile_UndefinedStaticMethodEndToEnd(t *testing.T) {
	t.Parallel()

	source := `<?php
class Foo {
    public function bar(): void {}
}
Foo::baz();
`
	file := parseSource(t, source)

	issues := DefaultRegistry().RunFile(file, symbols.NewTable(), 0, nil)

	require.Len(t, issues, 1)
	found := issues[0]
	assert.Equal(t, issue.SeverityError, found.Severity)
	assert.Equal(t, "staticMethod.notFound", found.Identifier)
	assert.Equal(t, "Call to an undefined static method Foo::baz().", found.Message)
	assert.Equal(t, "test.php", found.File)
	assert.Equal(t, 5, found.Line)
	assert.Equal(t, 6, found.Column, "issue points at the method token, not the statement")
}

func TestRunFile_SyntaxError(t *testing.T) {
	t.Parallel()

	file := parseSource(t, "<?php\nfunction broken( {\n")

	issues := DefaultRegistry().RunFile(file, symbols.NewTable(), 9, nil)

	require.Len(t, issues, 1, "a broken file yields only the parse error")
	assert.Equal(t, "parse.error", issues[0].Identifier)
	assert.Equal(t, "Syntax error.", issues[0].Message)
	assert.Equal(t, issue.SeverityError, issues[0].Severity)
	assert.Positive(t, issues[0].Line)
}

func TestRunFile_SortsByPosition(t *testing.T) {
	t.Parallel()

	// The constant check runs after the function check but its finding
	// sits earlier in the file.
	source := `<?php
echo MISSING_CONST;
missing_fn();
`
	file := parseSource(t, source)

	issues := DefaultRegistry().RunFile(file, symbols.NewTable(), 0, nil)

	require.Len(t, issues, 2)
	assert.Equal(t, "constant.notFound", issues[0].Identifier)
	assert.Equal(t, 2, issues[0].Line)
	assert.Equal(t, "function.notFound", issues[1].Identifier)
	assert.Equal(t, 3, issues[1].Line)
}

func TestRunFile_NilTableAndLogger(t *testing.T) {
	t.Parallel()

	file := parseSource(t, "<?php missing_fn();\n")

	issues := DefaultRegistry().RunFile(file, nil, 0, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, "function.notFound", issues[0].Identifier)
}

type stubCheck struct {
	id    string
	level int
}

func (s stubCheck) ID() string                                 { return s.id }
func (s stubCheck) Description() string                        { return "stub" }
func (s stubCheck) Level() int                                 { return s.level }
func (s stubCheck) Check(*phpast.File, *Context) []issue.Issue { return nil }

func TestRegistry_ForLevel(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubCheck{id: "a", level: 0})
	r.Register(stubCheck{id: "b", level: 3})
	r.Register(stubCheck{id: "c", level: 7})

	ids := func(checks []Check) []string {
		var out []string
		for _, c := range checks {
			out = append(out, c.ID())
		}
		return out
	}

	assert.Equal(t, []string{"a"}, ids(r.ForLevel(0)))
	assert.Equal(t, []string{"a"}, ids(r.ForLevel(2)))
	assert.Equal(t, []string{"a", "b"}, ids(r.ForLevel(3)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(r.ForLevel(9)))
	assert.Len(t, r.All(), 3)
}

func TestDefaultRegistry_LevelsAreMonotonic(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	prev := 0
	for level := 0; level <= 9; level++ {
		n := len(r.ForLevel(level))
		assert.GreaterOrEqual(t, n, prev, "level %d must include every lower level's checks", level)
		prev = n
	}
	assert.Len(t, r.ForLevel(0), 6)
	assert.Len(t, r.ForLevel(1), 7)
	assert.Len(t, r.ForLevel(9), 8)
}
