package symbols

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/phpscan/internal/phpast"
)

// FileSymbols holds the declarations collected from one parsed file.
type FileSymbols struct {
	Path      string
	Namespace string
	Classes   []*ClassInfo
	Functions []*FunctionInfo
	Constants []string

	// Aliases maps class import aliases to fully qualified names.
	// FunctionAliases and ConstantAliases do the same for "use function"
	// and "use const" imports.
	Aliases         map[string]string
	FunctionAliases map[string]string
	ConstantAliases map[string]string
}

// Collect extracts every class-like declaration, function, constant and
// import alias from a parsed file. Aliases are gathered first so that
// extends/implements/use references resolve through them regardless of
// declaration order.
func Collect(file *phpast.File) *FileSymbols {
	c := &collector{
		source:       file.Source,
		path:         file.Path,
		lowerAliases: make(map[string]string),
		out: &FileSymbols{
			Path:            file.Path,
			Aliases:         make(map[string]string),
			FunctionAliases: make(map[string]string),
			ConstantAliases: make(map[string]string),
		},
	}

	root := file.Root()
	phpast.Walk(root, func(n *sitter.Node) bool {
		if n.Kind() == "namespace_use_declaration" {
			c.collectUses(n)
			return false
		}
		return true
	})
	c.collectStatements(root, "")
	return c.out
}

// BuildTable registers a set of collected files into a fresh table.
func BuildTable(files []*FileSymbols) *Table {
	table := NewTable()
	AddTo(table, files)
	return table
}

// AddTo registers a set of collected files into an existing table.
// Later registrations win on FQN collision.
func AddTo(table *Table, files []*FileSymbols) {
	for _, fs := range files {
		table.SetAliases(fs.Path, fs.Aliases)
		for _, class := range fs.Classes {
			table.RegisterClass(class)
		}
		for _, fn := range fs.Functions {
			table.RegisterFunction(fn)
		}
		for _, name := range fs.Constants {
			table.RegisterConstant(name)
		}
	}
}

type collector struct {
	source       []byte
	path         string
	lowerAliases map[string]string
	out          *FileSymbols
}

// collectStatements walks one statement list. A namespace declaration
// without braces applies to the statements that follow it; a braced one
// scopes only its body. Plain blocks are descended into, other compound
// statements are not, so conditionally declared symbols stay uncollected.
func (c *collector) collectStatements(parent *sitter.Node, namespace string) {
	ns := namespace
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(uint(i))
		switch child.Kind() {
		case "namespace_definition":
			name := ""
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				name = phpast.Text(nameNode, c.source)
			}
			if c.out.Namespace == "" {
				c.out.Namespace = name
			}
			if body := phpast.ChildOfKind(child, "compound_statement"); body != nil {
				c.collectStatements(body, name)
			} else {
				ns = name
			}
		case "class_declaration":
			c.collectClass(child, ns, KindClass)
		case "interface_declaration":
			c.collectClass(child, ns, KindInterface)
		case "trait_declaration":
			c.collectClass(child, ns, KindTrait)
		case "enum_declaration":
			c.collectClass(child, ns, KindEnum)
		case "function_definition":
			c.collectFunction(child, ns)
		case "const_declaration":
			c.collectConstants(child, ns)
		case "compound_statement":
			c.collectStatements(child, ns)
		}
	}
}

func (c *collector) collectClass(node *sitter.Node, namespace string, kind ClassKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := phpast.Text(nameNode, c.source)
	info := NewClassInfo(name, qualify(namespace, name))
	info.Kind = kind
	info.File = c.path
	info.Line, _ = phpast.Position(nameNode)

	if base := phpast.ChildOfKind(node, "base_clause"); base != nil {
		names := c.referencedNames(base, namespace)
		if kind == KindClass && len(names) > 0 {
			info.Parent = names[0]
		} else {
			// Interfaces extend a list of interfaces.
			info.Interfaces = append(info.Interfaces, names...)
		}
	}
	if impl := phpast.ChildOfKind(node, "class_interface_clause"); impl != nil {
		info.Interfaces = append(info.Interfaces, c.referencedNames(impl, namespace)...)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		c.collectMembers(body, info, namespace)
	}
	info.MarkMethodsKnown()
	info.MarkStaticPropertiesKnown()

	if kind == KindEnum {
		c.addEnumMethods(info)
	}

	c.out.Classes = append(c.out.Classes, info)
}

func (c *collector) collectMembers(body *sitter.Node, info *ClassInfo, namespace string) {
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(uint(i))
		switch member.Kind() {
		case "method_declaration":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			info.AddMethod(MethodInfo{
				Name:       phpast.Text(nameNode, c.source),
				Parameters: c.collectParameters(member.ChildByFieldName("parameters")),
				IsStatic:   phpast.ChildOfKind(member, "static_modifier") != nil,
			})
		case "property_declaration":
			if phpast.ChildOfKind(member, "static_modifier") == nil {
				continue
			}
			for _, element := range phpast.ChildrenOfKind(member, "property_element") {
				if variable := phpast.ChildOfKind(element, "variable_name"); variable != nil {
					info.AddStaticProperty(strings.TrimPrefix(phpast.Text(variable, c.source), "$"))
				}
			}
		case "use_declaration":
			info.Traits = append(info.Traits, c.referencedNames(member, namespace)...)
		}
	}
}

// addEnumMethods registers the implicit static methods every enum carries
// so calls to them resolve without a declaration.
func (c *collector) addEnumMethods(info *ClassInfo) {
	info.AddMethod(MethodInfo{Name: "cases", IsStatic: true})
	info.AddMethod(MethodInfo{
		Name:       "from",
		Parameters: []ParameterInfo{{Name: "value"}},
		IsStatic:   true,
	})
	info.AddMethod(MethodInfo{
		Name:       "tryFrom",
		Parameters: []ParameterInfo{{Name: "value"}},
		IsStatic:   true,
	})
}

func (c *collector) collectFunction(node *sitter.Node, namespace string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := phpast.Text(nameNode, c.source)
	info := NewFunctionInfo(name, qualify(namespace, name))
	info.Parameters = c.collectParameters(node.ChildByFieldName("parameters"))
	info.ReturnsReference = phpast.ChildOfKind(node, "reference_modifier") != nil
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		info.ReturnType = phpast.Text(ret, c.source)
	}
	info.File = c.path
	info.Line, _ = phpast.Position(nameNode)

	c.out.Functions = append(c.out.Functions, info)

	// Named functions nested inside a function body register globally once
	// the outer function runs; collect them like top-level ones.
	if body := node.ChildByFieldName("body"); body != nil {
		c.collectStatements(body, namespace)
	}
}

func (c *collector) collectConstants(node *sitter.Node, namespace string) {
	for _, element := range phpast.ChildrenOfKind(node, "const_element") {
		nameNode := element.ChildByFieldName("name")
		if nameNode == nil {
			// Older grammar revisions expose the name as the first child.
			nameNode = phpast.ChildOfKind(element, "name")
		}
		if nameNode != nil {
			c.out.Constants = append(c.out.Constants, qualify(namespace, phpast.Text(nameNode, c.source)))
		}
	}
}

func (c *collector) collectParameters(node *sitter.Node) []ParameterInfo {
	if node == nil {
		return nil
	}

	var params []ParameterInfo
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "simple_parameter", "property_promotion_parameter":
			params = append(params, ParameterInfo{
				Name:        c.parameterName(child),
				Type:        c.parameterType(child),
				HasDefault:  child.ChildByFieldName("default_value") != nil,
				ByReference: phpast.ChildOfKind(child, "reference_modifier") != nil,
			})
		case "variadic_parameter":
			params = append(params, ParameterInfo{
				Name:        c.parameterName(child),
				Type:        c.parameterType(child),
				Variadic:    true,
				ByReference: phpast.ChildOfKind(child, "reference_modifier") != nil,
			})
		}
	}
	return params
}

func (c *collector) parameterName(param *sitter.Node) string {
	nameNode := param.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = phpast.ChildOfKind(param, "variable_name")
	}
	if nameNode == nil {
		return ""
	}
	return strings.TrimPrefix(phpast.Text(nameNode, c.source), "$")
}

func (c *collector) parameterType(param *sitter.Node) string {
	if typeNode := param.ChildByFieldName("type"); typeNode != nil {
		return phpast.Text(typeNode, c.source)
	}
	return ""
}

type importKind int

const (
	importClass importKind = iota
	importFunction
	importConstant
)

// collectUses records import aliases from one use declaration. A function
// or const keyword, on the declaration itself or on an individual group
// clause, decides which alias map the import lands in. Only class-like
// imports participate in name resolution.
func (c *collector) collectUses(decl *sitter.Node) {
	declKind := importClass
	for i := 0; i < int(decl.ChildCount()); i++ {
		switch decl.Child(uint(i)).Kind() {
		case "function":
			declKind = importFunction
		case "const":
			declKind = importConstant
		}
	}

	// Grouped form: the shared prefix is a direct namespace_name child.
	prefix := ""
	if nsNode := phpast.ChildOfKind(decl, "namespace_name"); nsNode != nil {
		prefix = phpast.Text(nsNode, c.source)
	}

	phpast.Walk(decl, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "namespace_use_clause", "namespace_use_group_clause":
			c.collectUseClause(n, prefix, declKind)
			return false
		}
		return true
	})
}

func (c *collector) collectUseClause(clause *sitter.Node, prefix string, kind importKind) {
	var nameText, alias string
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(uint(i))
		switch child.Kind() {
		case "function":
			kind = importFunction
		case "const":
			kind = importConstant
		case "name", "qualified_name", "namespace_name":
			if nameText == "" {
				nameText = phpast.Text(child, c.source)
			}
		case "namespace_aliasing_clause":
			if aliasNode := phpast.ChildOfKind(child, "name"); aliasNode != nil {
				alias = phpast.Text(aliasNode, c.source)
			}
		}
	}
	if nameText == "" {
		return
	}

	full := nameText
	if prefix != "" {
		full = prefix + `\` + nameText
	}
	full = strings.TrimPrefix(full, `\`)
	if alias == "" {
		alias = phpast.ShortName(full)
	}

	switch kind {
	case importFunction:
		c.out.FunctionAliases[alias] = full
	case importConstant:
		c.out.ConstantAliases[alias] = full
	default:
		c.out.Aliases[alias] = full
		c.lowerAliases[strings.ToLower(alias)] = full
	}
}

// referencedNames resolves every class name appearing under node through
// the file's aliases and namespace.
func (c *collector) referencedNames(node *sitter.Node, namespace string) []string {
	var names []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if phpast.IsNameNode(child) {
			names = append(names, c.resolveName(phpast.Text(child, c.source), namespace))
		}
	}
	return names
}

func (c *collector) resolveName(name, namespace string) string {
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}

	first, rest := name, ""
	if idx := strings.IndexByte(name, '\\'); idx >= 0 {
		first, rest = name[:idx], name[idx:]
	}
	if fqn, ok := c.lowerAliases[strings.ToLower(first)]; ok {
		return fqn + rest
	}

	return qualify(namespace, name)
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}
