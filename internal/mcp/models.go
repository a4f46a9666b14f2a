package mcp

import "github.com/mvp-joe/phpscan/internal/issue"

// AnalyzeResponse is the php_analyze tool result.
type AnalyzeResponse struct {
	RunID         string        `json:"run_id"`
	Level         int           `json:"level"`
	FilesTotal    int           `json:"files_total"`
	FilesAnalyzed int           `json:"files_analyzed"`
	FilesReused   int           `json:"files_reused"`
	Errors        int           `json:"errors"`
	Warnings      int           `json:"warnings"`
	IssuesIgnored int           `json:"issues_ignored,omitempty"`
	IssuesTotal   int           `json:"issues_total"`
	Issues        []issue.Issue `json:"issues"`
	Truncated     bool          `json:"truncated,omitempty"`
	DurationMS    int64         `json:"duration_ms"`
}

// SymbolResponse is the php_symbol tool result. Exactly one of Class,
// Function and Constant is set when Found is true.
type SymbolResponse struct {
	Query    string          `json:"query"`
	Found    bool            `json:"found"`
	Kind     string          `json:"kind,omitempty"`
	Class    *ClassSymbol    `json:"class,omitempty"`
	Function *FunctionSymbol `json:"function,omitempty"`
	Constant *ConstantSymbol `json:"constant,omitempty"`
}

// ClassSymbol describes a class-like declaration: a class, interface,
// trait or enum.
type ClassSymbol struct {
	Name             string         `json:"name"`
	FullName         string         `json:"full_name"`
	Namespace        string         `json:"namespace,omitempty"`
	Kind             string         `json:"kind"`
	Parent           string         `json:"parent,omitempty"`
	Interfaces       []string       `json:"interfaces,omitempty"`
	Traits           []string       `json:"traits,omitempty"`
	File             string         `json:"file,omitempty"`
	Line             int            `json:"line,omitempty"`
	Methods          []MethodSymbol `json:"methods,omitempty"`
	StaticProperties []string       `json:"static_properties,omitempty"`

	// MembersComplete is false for classes known only by name, e.g. from a
	// composer classmap. Their member lists are unknown, not empty.
	MembersComplete bool `json:"members_complete"`
}

// MethodSymbol describes one declared method by name and arity.
type MethodSymbol struct {
	Name         string `json:"name"`
	Static       bool   `json:"static,omitempty"`
	RequiredArgs int    `json:"required_args"`
	MaxArgs      *int   `json:"max_args,omitempty"` // nil when variadic
}

// FunctionSymbol describes a standalone function declaration with its full
// signature.
type FunctionSymbol struct {
	Name             string            `json:"name"`
	FullName         string            `json:"full_name"`
	Namespace        string            `json:"namespace,omitempty"`
	File             string            `json:"file,omitempty"`
	Line             int               `json:"line,omitempty"`
	Parameters       []ParameterSymbol `json:"parameters,omitempty"`
	RequiredArgs     int               `json:"required_args"`
	MaxArgs          *int              `json:"max_args,omitempty"` // nil when variadic
	ReturnType       string            `json:"return_type,omitempty"`
	ReturnsReference bool              `json:"returns_reference,omitempty"`
}

// ParameterSymbol describes one declared parameter, without its $ sigil.
type ParameterSymbol struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	HasDefault  bool   `json:"has_default,omitempty"`
	Variadic    bool   `json:"variadic,omitempty"`
	ByReference bool   `json:"by_reference,omitempty"`
}

// ConstantSymbol describes a declared constant. The table records constants
// by name only.
type ConstantSymbol struct {
	Name string `json:"name"`
}

// SymbolSearchResponse is the php_symbol_search tool result.
type SymbolSearchResponse struct {
	Results []SymbolHit `json:"results"`
	Total   int         `json:"total"`
}

// SymbolHit is a single ranked search result.
type SymbolHit struct {
	FQN   string  `json:"fqn"`
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	File  string  `json:"file,omitempty"`
	Line  int     `json:"line,omitempty"`
	Score float64 `json:"score"`
}
