// Package checks implements the leveled static analysis checks. Each check
// inspects one parsed file against the per-file scope and the project-wide
// symbol table, and reports issues with precise source locations. Levels
// are cumulative: running at level N runs every check registered at or
// below N.
package checks

import (
	"log/slog"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
	"github.com/mvp-joe/phpscan/internal/symbols"
	"github.com/mvp-joe/phpscan/internal/trinary"
)

// Check is a single analysis rule.
type Check interface {
	// ID is the stable check identifier, e.g. "function.notFound".
	ID() string

	// Description is a short human-readable summary.
	Description() string

	// Level is the lowest analysis level at which the check runs.
	Level() int

	// Check inspects one file and returns any issues found.
	Check(file *phpast.File, ctx *Context) []issue.Issue
}

// Context carries the shared state a check needs: the file scope, the
// project symbol table and the requested analysis level.
type Context struct {
	Scope  *Scope
	Table  *symbols.Table
	Level  int
	Logger *slog.Logger
}

// Registry holds checks in registration order.
type Registry struct {
	checks []Check
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with every built-in check.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Level 0
	r.Register(UndefinedFunction{})
	r.Register(UndefinedClass{})
	r.Register(UndefinedConstant{})
	r.Register(UndefinedStaticMethod{})
	r.Register(UndefinedStaticProperty{})
	r.Register(ArgumentCount{})

	// Level 1
	r.Register(UndefinedVariable{})

	// Level 2
	r.Register(UndefinedMethod{})

	return r
}

// Register appends a check.
func (r *Registry) Register(c Check) {
	r.checks = append(r.checks, c)
}

// ForLevel returns the checks enabled at the given level, meaning every
// check whose own level is less than or equal to it.
func (r *Registry) ForLevel(level int) []Check {
	var out []Check
	for _, c := range r.checks {
		if c.Level() <= level {
			out = append(out, c)
		}
	}
	return out
}

// All returns every registered check.
func (r *Registry) All() []Check {
	return append([]Check(nil), r.checks...)
}

// RunFile executes the enabled checks against one parsed file and returns
// the issues sorted by position. Files with syntax errors produce a single
// parse error issue and are not checked further: the tree is incomplete
// and anything reported from it would be noise.
func (r *Registry) RunFile(file *phpast.File, table *symbols.Table, level int, logger *slog.Logger) []issue.Issue {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if table == nil {
		table = symbols.NewTable()
	}

	if file.HasSyntaxError() {
		line, col := file.FirstErrorPosition()
		return []issue.Issue{
			issue.NewError("parse.error", "Syntax error.", file.Path, line, col).
				WithIdentifier("parse.error"),
		}
	}

	ctx := &Context{
		Scope:  NewScope(file),
		Table:  table,
		Level:  level,
		Logger: logger,
	}

	var out []issue.Issue
	for _, c := range r.ForLevel(level) {
		found := c.Check(file, ctx)
		if len(found) > 0 {
			logger.Debug("check reported issues",
				"check", c.ID(), "file", file.Path, "count", len(found))
		}
		out = append(out, found...)
	}
	issue.Sort(out)
	return out
}

// classHasMethod answers whether the named class has the named method,
// asking the file's own declarations before the project table. The local
// answer wins unless it is uncertain, which happens when the class is
// declared elsewhere or part of its hierarchy is.
func (ctx *Context) classHasMethod(class, method string) trinary.Value {
	if v := ctx.Scope.Local().ClassHasMethod(class, method); !v.IsMaybe() {
		return v
	}
	return ctx.Table.ClassHasMethod(class, method)
}

// classHasStaticProperty is the static property counterpart of
// classHasMethod.
func (ctx *Context) classHasStaticProperty(class, property string) trinary.Value {
	if v := ctx.Scope.Local().ClassHasStaticProperty(class, property); !v.IsMaybe() {
		return v
	}
	return ctx.Table.ClassHasStaticProperty(class, property)
}

// classKnown reports whether the class is declared in the current file or
// the project table.
func (ctx *Context) classKnown(class string) bool {
	if _, ok := ctx.Scope.LocalClass(class); ok {
		return true
	}
	return ctx.Table.ClassExists(class)
}
