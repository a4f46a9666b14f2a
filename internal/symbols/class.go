package symbols

import (
	"sort"
	"strings"
)

// ClassKind distinguishes the four class-like declaration forms.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	default:
		return "class"
	}
}

// ClassInfo describes a class-like declaration. Method lookup is
// case-insensitive, static property lookup is case-sensitive, matching PHP
// semantics. Member sets track whether they were ever collected: a class
// known only by name (from a classmap) answers member queries with
// "unknown" rather than "absent".
type ClassInfo struct {
	Name       string
	FullName   string
	Namespace  string
	Kind       ClassKind
	Parent     string
	Interfaces []string
	Traits     []string
	File       string
	Line       int

	methods      map[string]MethodInfo
	methodsKnown bool

	staticProperties map[string]struct{}
	staticPropsKnown bool
}

// NewClassInfo creates a ClassInfo, deriving the namespace from the FQN.
func NewClassInfo(name, fullName string) *ClassInfo {
	namespace := ""
	if idx := strings.LastIndexByte(fullName, '\\'); idx >= 0 {
		namespace = fullName[:idx]
	}
	return &ClassInfo{
		Name:      name,
		FullName:  fullName,
		Namespace: namespace,
		Kind:      KindClass,
	}
}

// ClassFromFQN creates a ClassInfo from a fully-qualified name alone.
func ClassFromFQN(fqn string) *ClassInfo {
	name := fqn
	if idx := strings.LastIndexByte(fqn, '\\'); idx >= 0 {
		name = fqn[idx+1:]
	}
	return NewClassInfo(name, fqn)
}

// AddMethod registers a method and marks the method set as collected.
func (c *ClassInfo) AddMethod(method MethodInfo) {
	if c.methods == nil {
		c.methods = make(map[string]MethodInfo)
	}
	c.methods[strings.ToLower(method.Name)] = method
	c.methodsKnown = true
}

// HasMethod reports whether the class declares a method, case-insensitively.
func (c *ClassInfo) HasMethod(name string) bool {
	_, ok := c.methods[strings.ToLower(name)]
	return ok
}

// Method returns a declared method by name, case-insensitively.
func (c *ClassInfo) Method(name string) (MethodInfo, bool) {
	m, ok := c.methods[strings.ToLower(name)]
	return m, ok
}

// MethodNames returns the declared method names, sorted.
func (c *ClassInfo) MethodNames() []string {
	names := make([]string, 0, len(c.methods))
	for _, m := range c.methods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// MethodsKnown reports whether the method set was ever collected. False
// means the class is known only by name and member queries cannot be
// answered definitively.
func (c *ClassInfo) MethodsKnown() bool {
	return c.methodsKnown
}

// MarkMethodsKnown records that the method set is complete even if empty.
func (c *ClassInfo) MarkMethodsKnown() {
	c.methodsKnown = true
}

// AddStaticProperty registers a static property name, without its $ sigil.
func (c *ClassInfo) AddStaticProperty(name string) {
	if c.staticProperties == nil {
		c.staticProperties = make(map[string]struct{})
	}
	c.staticProperties[name] = struct{}{}
	c.staticPropsKnown = true
}

// HasStaticProperty reports whether the class declares a static property.
func (c *ClassInfo) HasStaticProperty(name string) bool {
	_, ok := c.staticProperties[name]
	return ok
}

// StaticPropertyNames returns the declared static property names, sorted.
func (c *ClassInfo) StaticPropertyNames() []string {
	names := make([]string, 0, len(c.staticProperties))
	for name := range c.staticProperties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StaticPropertiesKnown reports whether the property set was collected.
func (c *ClassInfo) StaticPropertiesKnown() bool {
	return c.staticPropsKnown
}

// MarkStaticPropertiesKnown records that the property set is complete.
func (c *ClassInfo) MarkStaticPropertiesKnown() {
	c.staticPropsKnown = true
}

// MethodInfo describes one declared method. A cache-restored method keeps
// only its name; parameter detail survives within a single run.
type MethodInfo struct {
	Name       string
	Parameters []ParameterInfo
	IsStatic   bool
}

// RequiredArgs returns the minimum argument count.
func (m MethodInfo) RequiredArgs() int {
	return requiredArgCount(m.Parameters)
}

// MaxArgs returns the maximum argument count. ok is false when a variadic
// parameter makes the maximum unbounded.
func (m MethodInfo) MaxArgs() (max int, ok bool) {
	return maxArgCount(m.Parameters)
}

// AcceptsArgCount reports whether a call with n arguments is valid.
func (m MethodInfo) AcceptsArgCount(n int) bool {
	return acceptsArgCount(m.Parameters, n)
}

// ParameterInfo describes one declared parameter, without its $ sigil.
type ParameterInfo struct {
	Name        string
	Type        string
	HasDefault  bool
	Variadic    bool
	ByReference bool
}

func requiredArgCount(params []ParameterInfo) int {
	count := 0
	for _, p := range params {
		if p.HasDefault || p.Variadic {
			break
		}
		count++
	}
	return count
}

func maxArgCount(params []ParameterInfo) (int, bool) {
	for _, p := range params {
		if p.Variadic {
			return 0, false
		}
	}
	return len(params), true
}

func acceptsArgCount(params []ParameterInfo, n int) bool {
	if n < requiredArgCount(params) {
		return false
	}
	if max, bounded := maxArgCount(params); bounded && n > max {
		return false
	}
	return true
}
