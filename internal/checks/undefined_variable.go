package checks

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
)

// UndefinedVariable reports reads of variables that no code path has
// assigned. Assignments, parameters, foreach targets, catch bindings and
// global/static declarations all define variables. Conditional branches
// are merged: a variable assigned in every branch of an if/else chain is
// defined afterwards, one assigned in only some branches is "possibly
// defined" and reads of it get a softer message.
//
// Functions and methods open fresh scopes, closures see only their
// parameters and use() imports, and arrow functions read through to the
// enclosing scope.
type UndefinedVariable struct{}

func (UndefinedVariable) ID() string          { return "undefined.variable" }
func (UndefinedVariable) Description() string { return "Detects use of undefined variables" }
func (UndefinedVariable) Level() int          { return 1 }

func (UndefinedVariable) Check(file *phpast.File, ctx *Context) []issue.Issue {
	a := &varAnalyzer{file: file}
	a.scopes = append(a.scopes, newVarScope())
	a.block(file.Root())
	return a.issues
}

// Superglobals exist in every scope, closures included.
var superglobals = map[string]bool{
	"$_GET": true, "$_POST": true, "$_REQUEST": true, "$_SERVER": true,
	"$_SESSION": true, "$_COOKIE": true, "$_FILES": true, "$_ENV": true,
	"$GLOBALS": true, "$argc": true, "$argv": true,
}

type varScope struct {
	defined  map[string]bool
	possibly map[string]bool

	// isolated scopes (functions, methods, closures) do not see outer
	// variables; closures additionally carry their use() imports.
	isolated  bool
	inherited map[string]bool
	hasThis   bool
}

func newVarScope() *varScope {
	return &varScope{
		defined:   make(map[string]bool),
		possibly:  make(map[string]bool),
		inherited: make(map[string]bool),
	}
}

type varAnalyzer struct {
	file   *phpast.File
	scopes []*varScope
	issues []issue.Issue
}

func (a *varAnalyzer) cur() *varScope {
	return a.scopes[len(a.scopes)-1]
}

func (a *varAnalyzer) push(s *varScope) {
	a.scopes = append(a.scopes, s)
}

func (a *varAnalyzer) pop() {
	if len(a.scopes) > 1 {
		a.scopes = a.scopes[:len(a.scopes)-1]
	}
}

func (a *varAnalyzer) define(name string) {
	s := a.cur()
	delete(s.possibly, name)
	s.defined[name] = true
}

func (a *varAnalyzer) definePossibly(name string) {
	s := a.cur()
	if !s.defined[name] {
		s.possibly[name] = true
	}
}

func (a *varAnalyzer) isDefined(name string) bool {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		s := a.scopes[i]
		if s.defined[name] || s.inherited[name] {
			return true
		}
		if s.isolated {
			return false
		}
	}
	return false
}

func (a *varAnalyzer) isPossiblyDefined(name string) bool {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		s := a.scopes[i]
		if s.possibly[name] {
			return true
		}
		if s.isolated {
			return false
		}
	}
	return false
}

func (a *varAnalyzer) hasThis() bool {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if a.scopes[i].hasThis {
			return true
		}
	}
	return false
}

func (a *varAnalyzer) snapshot() map[string]bool {
	return copyVarSet(a.cur().defined)
}

func (a *varAnalyzer) restore(snap map[string]bool) {
	a.cur().defined = copyVarSet(snap)
}

func copyVarSet(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set))
	for name := range set {
		out[name] = true
	}
	return out
}

// mergeBranches folds the after-states of sibling branches back into the
// current scope: variables new in every branch become defined, variables
// new in only some become possibly defined.
func (a *varAnalyzer) mergeBranches(before map[string]bool, branches []map[string]bool) {
	if len(branches) == 0 {
		return
	}
	newVars := make([]map[string]bool, len(branches))
	for i, snap := range branches {
		newVars[i] = make(map[string]bool)
		for name := range snap {
			if !before[name] {
				newVars[i][name] = true
			}
		}
	}

	for name := range newVars[0] {
		inAll := true
		for _, branch := range newVars[1:] {
			if !branch[name] {
				inAll = false
				break
			}
		}
		if inAll {
			a.define(name)
		}
	}
	for _, branch := range newVars {
		for name := range branch {
			if !a.isDefined(name) {
				a.definePossibly(name)
			}
		}
	}
}

func (a *varAnalyzer) read(name string, n *sitter.Node) {
	if superglobals[name] {
		return
	}
	if a.isDefined(name) {
		return
	}
	line, col := phpast.Position(n)
	if a.isPossiblyDefined(name) {
		a.issues = append(a.issues, issue.NewError(
			"undefined.variable",
			fmt.Sprintf("Variable %s might not be defined.", name),
			a.file.Path, line, col,
		).WithIdentifier("variable.possiblyUndefined"))
		return
	}
	a.issues = append(a.issues, issue.NewError(
		"undefined.variable",
		fmt.Sprintf("Undefined variable %s", name),
		a.file.Path, line, col,
	).WithIdentifier("variable.undefined"))
}

func (a *varAnalyzer) block(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		a.stmt(n.NamedChild(uint(i)))
	}
}

func (a *varAnalyzer) stmt(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "expression_statement":
		if e := n.NamedChild(0); e != nil {
			a.expr(e, false)
		}
	case "compound_statement", "colon_block":
		a.block(n)
	case "if_statement":
		a.ifStatement(n)
	case "while_statement":
		a.expr(n.ChildByFieldName("condition"), false)
		a.stmt(n.ChildByFieldName("body"))
	case "do_statement":
		a.stmt(n.ChildByFieldName("body"))
		a.expr(n.ChildByFieldName("condition"), false)
	case "for_statement":
		a.expr(n.ChildByFieldName("initialize"), false)
		a.expr(n.ChildByFieldName("condition"), false)
		a.expr(n.ChildByFieldName("update"), false)
		a.stmt(n.ChildByFieldName("body"))
	case "foreach_statement":
		a.foreachStatement(n)
	case "switch_statement":
		a.expr(n.ChildByFieldName("condition"), false)
		if body := n.ChildByFieldName("body"); body != nil {
			a.switchBlock(body)
		}
	case "try_statement":
		a.tryStatement(n)
	case "return_statement":
		if e := n.NamedChild(0); e != nil {
			a.expr(e, false)
		}
	case "echo_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			a.expr(n.NamedChild(uint(i)), false)
		}
	case "global_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if v := n.NamedChild(uint(i)); v.Kind() == "variable_name" {
				a.define(phpast.Text(v, a.file.Source))
			}
		}
	case "function_static_declaration":
		for _, decl := range phpast.ChildrenOfKind(n, "static_variable_declaration") {
			if v := decl.ChildByFieldName("name"); v != nil {
				a.define(phpast.Text(v, a.file.Source))
			}
		}
	case "function_definition":
		a.functionScope(n, false)
	case "class_declaration", "trait_declaration", "enum_declaration", "interface_declaration":
		if body := n.ChildByFieldName("body"); body != nil {
			a.classBody(body)
		}
	case "namespace_definition":
		if body := phpast.ChildOfKind(n, "compound_statement"); body != nil {
			a.block(body)
		}
	case "unset_statement":
		// unset never reads its arguments.
	}
}

func (a *varAnalyzer) ifStatement(n *sitter.Node) {
	a.expr(n.ChildByFieldName("condition"), false)

	before := a.snapshot()
	var branches []map[string]bool

	body := n.ChildByFieldName("body")
	elseIfs := phpast.ChildrenOfKind(n, "else_if_clause")
	elseClause := phpast.ChildOfKind(n, "else_clause")
	if body != nil && body.Kind() == "colon_block" {
		// In the colon form the alternative clauses live inside the
		// block; block() skips them, so running the body as a branch
		// only executes the leading statements.
		elseIfs = append(elseIfs, phpast.ChildrenOfKind(body, "else_if_clause")...)
		if elseClause == nil {
			elseClause = phpast.ChildOfKind(body, "else_clause")
		}
	}

	a.stmt(body)
	branches = append(branches, a.snapshot())
	a.restore(before)

	for _, clause := range elseIfs {
		a.expr(clause.ChildByFieldName("condition"), false)
		a.stmt(clause.ChildByFieldName("body"))
		branches = append(branches, a.snapshot())
		a.restore(before)
	}
	if elseClause != nil {
		body := elseClause.ChildByFieldName("body")
		if body == nil {
			body = elseClause.NamedChild(0)
		}
		a.stmt(body)
		branches = append(branches, a.snapshot())
		a.restore(before)
	} else {
		// Without an else the fall-through path assigns nothing.
		branches = append(branches, copyVarSet(before))
	}

	a.mergeBranches(before, branches)
}

func (a *varAnalyzer) switchBlock(body *sitter.Node) {
	before := a.snapshot()
	var branches []map[string]bool

	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(uint(i))
		switch c.Kind() {
		case "case_statement", "default_statement":
			value := c.ChildByFieldName("value")
			if value != nil {
				a.expr(value, false)
			}
			for j := 0; j < int(c.NamedChildCount()); j++ {
				stmt := c.NamedChild(uint(j))
				if value != nil && stmt.StartByte() == value.StartByte() {
					continue
				}
				a.stmt(stmt)
			}
			branches = append(branches, a.snapshot())
			a.restore(before)
		}
	}

	a.restore(before)
	a.mergeBranches(before, branches)
}

func (a *varAnalyzer) foreachStatement(n *sitter.Node) {
	count := int(n.NamedChildCount())
	if count == 0 {
		return
	}
	a.expr(n.NamedChild(0), false)
	for i := 1; i < count-1; i++ {
		target := n.NamedChild(uint(i))
		if target.Kind() == "pair" {
			// Unlike a destructuring pair, both sides of
			// foreach ($arr as $k => $v) are targets.
			for j := 0; j < int(target.NamedChildCount()); j++ {
				a.defineTargets(target.NamedChild(uint(j)))
			}
			continue
		}
		a.defineTargets(target)
	}
	if count >= 2 {
		a.stmt(n.NamedChild(uint(count - 1)))
	}
}

func (a *varAnalyzer) tryStatement(n *sitter.Node) {
	if body := n.ChildByFieldName("body"); body != nil {
		a.block(body)
	}
	for _, catch := range phpast.ChildrenOfKind(n, "catch_clause") {
		if v := catch.ChildByFieldName("name"); v != nil {
			a.define(phpast.Text(v, a.file.Source))
		}
		if body := catch.ChildByFieldName("body"); body != nil {
			a.block(body)
		}
	}
	if finally := phpast.ChildOfKind(n, "finally_clause"); finally != nil {
		if body := finally.ChildByFieldName("body"); body != nil {
			a.block(body)
		}
	}
}

func (a *varAnalyzer) classBody(body *sitter.Node) {
	for _, method := range phpast.ChildrenOfKind(body, "method_declaration") {
		a.functionScope(method, true)
	}
}

// functionScope analyzes a function or method body in a fresh isolated
// scope. Methods get $this; whether the method is static is not tracked,
// the same way PHP itself only rejects $this in static methods at runtime.
func (a *varAnalyzer) functionScope(n *sitter.Node, isMethod bool) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	s := newVarScope()
	s.isolated = true
	if isMethod {
		s.hasThis = true
	}
	a.push(s)
	if isMethod {
		a.define("$this")
	}
	a.defineParams(n.ChildByFieldName("parameters"))
	a.block(body)
	a.pop()
}

func (a *varAnalyzer) defineParams(params *sitter.Node) {
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		if v := params.NamedChild(uint(i)).ChildByFieldName("name"); v != nil && v.Kind() == "variable_name" {
			a.define(phpast.Text(v, a.file.Source))
		}
	}
}

// defineTargets marks every variable in an assignment target as defined:
// plain variables, destructuring lists, by-reference targets and the base
// of subscript writes, which PHP creates on assignment.
func (a *varAnalyzer) defineTargets(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "variable_name":
		a.define(phpast.Text(n, a.file.Source))
	case "list_literal", "array_creation_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			a.defineTargets(n.NamedChild(uint(i)))
		}
	case "pair", "array_element_initializer":
		// A keyed element reads its key and assigns into its value.
		if count := n.NamedChildCount(); count >= 2 {
			a.expr(n.NamedChild(0), false)
			a.defineTargets(n.NamedChild(count - 1))
		} else if count == 1 {
			a.defineTargets(n.NamedChild(0))
		}
	case "by_ref":
		a.defineTargets(n.NamedChild(0))
	case "subscript_expression":
		a.defineTargets(n.NamedChild(0))
		for i := 1; i < int(n.NamedChildCount()); i++ {
			a.expr(n.NamedChild(uint(i)), false)
		}
	case "member_access_expression", "nullsafe_member_access_expression":
		a.expr(n.ChildByFieldName("object"), false)
	default:
		a.expr(n, false)
	}
}

func (a *varAnalyzer) expr(n *sitter.Node, isTarget bool) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "variable_name":
		name := phpast.Text(n, a.file.Source)
		if isTarget {
			a.define(name)
		} else {
			a.read(name, n)
		}
	case "dynamic_variable_name":
		// $$name is dynamic; nothing useful can be said about it.
	case "assignment_expression", "augmented_assignment_expression", "reference_assignment_expression":
		a.expr(n.ChildByFieldName("right"), false)
		a.defineTargets(n.ChildByFieldName("left"))
	case "anonymous_function":
		a.closure(n)
	case "arrow_function":
		s := newVarScope()
		a.push(s)
		a.defineParams(n.ChildByFieldName("parameters"))
		a.expr(n.ChildByFieldName("body"), false)
		a.pop()
	case "function_call_expression":
		a.functionCall(n)
	case "member_call_expression", "nullsafe_member_call_expression":
		a.expr(n.ChildByFieldName("object"), false)
		if name := n.ChildByFieldName("name"); name != nil && name.Kind() == "variable_name" {
			a.read(phpast.Text(name, a.file.Source), name)
		}
		a.arguments(n.ChildByFieldName("arguments"))
	case "member_access_expression", "nullsafe_member_access_expression":
		a.expr(n.ChildByFieldName("object"), false)
		if name := n.ChildByFieldName("name"); name != nil && name.Kind() == "variable_name" {
			a.read(phpast.Text(name, a.file.Source), name)
		}
	case "scoped_call_expression":
		if scope := n.ChildByFieldName("scope"); scope != nil && scope.Kind() == "variable_name" {
			a.read(phpast.Text(scope, a.file.Source), scope)
		}
		a.arguments(n.ChildByFieldName("arguments"))
	case "scoped_property_access_expression":
		// Foo::$bar names a static property, not a variable; only a
		// dynamic scope like $obj::$bar reads a variable.
		if scope := n.ChildByFieldName("scope"); scope != nil && scope.Kind() == "variable_name" {
			a.read(phpast.Text(scope, a.file.Source), scope)
		}
	case "class_constant_access_expression":
		if scope := n.NamedChild(0); scope != nil && scope.Kind() == "variable_name" {
			a.read(phpast.Text(scope, a.file.Source), scope)
		}
	case "object_creation_expression":
		a.arguments(phpast.ChildOfKind(n, "arguments"))
		if body := phpast.ChildOfKind(n, "declaration_list"); body != nil {
			a.classBody(body)
		}
	case "binary_expression":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if op := n.ChildByFieldName("operator"); op != nil && phpast.Text(op, a.file.Source) == "??" {
			a.coalesceTarget(left)
		} else {
			a.expr(left, false)
		}
		a.expr(right, false)
	default:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			a.expr(n.NamedChild(uint(i)), false)
		}
	}
}

func (a *varAnalyzer) closure(n *sitter.Node) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	s := newVarScope()
	s.isolated = true
	if a.hasThis() {
		s.hasThis = true
	}
	a.push(s)
	if s.hasThis {
		a.define("$this")
	}
	a.defineParams(n.ChildByFieldName("parameters"))
	if use := phpast.ChildOfKind(n, "anonymous_function_use_clause"); use != nil {
		phpast.Walk(use, func(v *sitter.Node) bool {
			if v.Kind() == "variable_name" {
				a.cur().inherited[phpast.Text(v, a.file.Source)] = true
			}
			return true
		})
	}
	a.block(body)
	a.pop()
}

func (a *varAnalyzer) functionCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn != nil {
		switch fn.Kind() {
		case "name":
			// isset and empty read nothing; probing an unset variable
			// is their entire purpose.
			switch phpast.Text(fn, a.file.Source) {
			case "isset", "empty":
				return
			}
		case "variable_name":
			a.read(phpast.Text(fn, a.file.Source), fn)
		default:
			a.expr(fn, false)
		}
	}
	a.arguments(n.ChildByFieldName("arguments"))
}

func (a *varAnalyzer) arguments(args *sitter.Node) {
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(uint(i))
		if arg.Kind() != "argument" {
			a.expr(arg, false)
			continue
		}
		label := arg.ChildByFieldName("name")
		for j := 0; j < int(arg.NamedChildCount()); j++ {
			child := arg.NamedChild(uint(j))
			if label != nil && child.StartByte() == label.StartByte() {
				continue
			}
			a.expr(child, false)
		}
	}
}

// coalesceTarget handles the left side of ??, which PHP evaluates without
// complaining about missing variables or keys. The spine of the access
// chain is exempt from read checking; subscript indexes inside it are
// still ordinary reads.
func (a *varAnalyzer) coalesceTarget(n *sitter.Node) {
	if n == nil {
		return
	}
	n = phpast.Unwrap(n)
	for {
		switch n.Kind() {
		case "variable_name":
			return
		case "subscript_expression":
			for i := 1; i < int(n.NamedChildCount()); i++ {
				a.expr(n.NamedChild(uint(i)), false)
			}
			n = n.NamedChild(0)
		case "member_access_expression", "nullsafe_member_access_expression":
			obj := n.ChildByFieldName("object")
			if obj == nil {
				return
			}
			n = obj
		default:
			a.expr(n, false)
			return
		}
	}
}
