package checks

import (
	"strings"

	"github.com/mvp-joe/phpscan/internal/phpast"
	"github.com/mvp-joe/phpscan/internal/symbols"
)

// Scope is the per-file view shared by every check: the declarations
// collected from the file plus those same declarations registered in a
// private table, so hierarchy questions about locally declared classes can
// be answered before the file reaches the project table.
type Scope struct {
	file  *symbols.FileSymbols
	local *symbols.Table

	functions    map[string]*symbols.FunctionInfo
	classes      map[string]*symbols.ClassInfo
	constants    map[string]bool
	classImports map[string]string
	funcImports  map[string]string
	constImports map[string]string
}

// NewScope collects the file's declarations and builds the lookup maps.
func NewScope(file *phpast.File) *Scope {
	fs := symbols.Collect(file)
	s := &Scope{
		file:         fs,
		local:        symbols.BuildTable([]*symbols.FileSymbols{fs}),
		functions:    make(map[string]*symbols.FunctionInfo),
		classes:      make(map[string]*symbols.ClassInfo),
		constants:    make(map[string]bool),
		classImports: make(map[string]string),
		funcImports:  make(map[string]string),
		constImports: make(map[string]string),
	}

	for _, fn := range fs.Functions {
		s.functions[strings.ToLower(fn.Name)] = fn
	}
	for _, class := range fs.Classes {
		s.classes[strings.ToLower(class.Name)] = class
		s.classes[strings.ToLower(class.FullName)] = class
	}
	// Constants are case sensitive in PHP, but the lowercase form is kept
	// as well so near-miss spellings of known names are not reported.
	for _, name := range fs.Constants {
		short := phpast.ShortName(name)
		s.constants[name] = true
		s.constants[strings.ToLower(name)] = true
		s.constants[short] = true
		s.constants[strings.ToLower(short)] = true
	}
	for alias, fqn := range fs.Aliases {
		s.classImports[strings.ToLower(alias)] = fqn
	}
	for alias, fqn := range fs.FunctionAliases {
		s.funcImports[strings.ToLower(alias)] = fqn
	}
	for alias, fqn := range fs.ConstantAliases {
		s.constImports[strings.ToLower(alias)] = fqn
	}
	return s
}

// Symbols returns the collected file symbols.
func (s *Scope) Symbols() *symbols.FileSymbols {
	return s.file
}

// Local returns the table holding only this file's declarations.
func (s *Scope) Local() *symbols.Table {
	return s.local
}

// Namespace returns the file's namespace, or "" for global code.
func (s *Scope) Namespace() string {
	return s.file.Namespace
}

// ResolveClassName expands a class reference as written in this file to a
// fully qualified name: absolute references are taken verbatim, the first
// segment is tried against the file's imports, and unqualified names are
// prefixed with the file namespace.
func (s *Scope) ResolveClassName(name string) string {
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}

	first, rest := name, ""
	if idx := strings.IndexByte(name, '\\'); idx >= 0 {
		first, rest = name[:idx], name[idx:]
	}
	if fqn, ok := s.classImports[strings.ToLower(first)]; ok {
		return fqn + rest
	}
	if s.file.Namespace != "" {
		return s.file.Namespace + `\` + name
	}
	return name
}

// LocalClass finds a class declared in this file by short or qualified
// name, case-insensitively.
func (s *Scope) LocalClass(name string) (*symbols.ClassInfo, bool) {
	class, ok := s.classes[strings.ToLower(strings.TrimPrefix(name, `\`))]
	return class, ok
}

// LocalFunction finds a function declared in this file by short name,
// case-insensitively.
func (s *Scope) LocalFunction(name string) (*symbols.FunctionInfo, bool) {
	fn, ok := s.functions[strings.ToLower(name)]
	return fn, ok
}

// HasLocalConstant reports whether the file declares the constant, by
// short or qualified name.
func (s *Scope) HasLocalConstant(name string) bool {
	return s.constants[name] || s.constants[strings.ToLower(name)]
}

// ClassImport returns the target of a class import matching the name,
// case-insensitively.
func (s *Scope) ClassImport(name string) (string, bool) {
	fqn, ok := s.classImports[strings.ToLower(name)]
	return fqn, ok
}

// FunctionImport returns the target of a "use function" import matching
// the name, case-insensitively.
func (s *Scope) FunctionImport(name string) (string, bool) {
	fqn, ok := s.funcImports[strings.ToLower(name)]
	return fqn, ok
}

// ConstantImport returns the target of a "use const" import matching the
// name, case-insensitively.
func (s *Scope) ConstantImport(name string) (string, bool) {
	fqn, ok := s.constImports[strings.ToLower(name)]
	return fqn, ok
}
