package symbols

import "strings"

// FunctionInfo describes a standalone function declaration.
type FunctionInfo struct {
	Name             string
	FullName         string
	Namespace        string
	Parameters       []ParameterInfo
	ReturnType       string
	ReturnsReference bool
	File             string
	Line             int
}

// NewFunctionInfo creates a FunctionInfo, deriving the namespace from the
// FQN.
func NewFunctionInfo(name, fullName string) *FunctionInfo {
	namespace := ""
	if idx := strings.LastIndexByte(fullName, '\\'); idx >= 0 {
		namespace = fullName[:idx]
	}
	return &FunctionInfo{
		Name:      name,
		FullName:  fullName,
		Namespace: namespace,
	}
}

// FunctionFromFQN creates a FunctionInfo from a fully-qualified name alone.
func FunctionFromFQN(fqn string) *FunctionInfo {
	name := fqn
	if idx := strings.LastIndexByte(fqn, '\\'); idx >= 0 {
		name = fqn[idx+1:]
	}
	return NewFunctionInfo(name, fqn)
}

// RequiredArgs returns the minimum argument count.
func (f *FunctionInfo) RequiredArgs() int {
	return requiredArgCount(f.Parameters)
}

// MaxArgs returns the maximum argument count. ok is false when a variadic
// parameter makes the maximum unbounded, regardless of its position.
func (f *FunctionInfo) MaxArgs() (max int, ok bool) {
	return maxArgCount(f.Parameters)
}

// AcceptsArgCount reports whether a call with n arguments is valid.
func (f *FunctionInfo) AcceptsArgCount(n int) bool {
	return acceptsArgCount(f.Parameters, n)
}
