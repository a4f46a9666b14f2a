// Package symbols maintains the cross-file registry of PHP declarations:
// classes, functions, constants and per-file import aliases. Class and
// function lookup is keyed case-insensitively by fully-qualified name while
// entries keep their original casing.
package symbols

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/phpscan/internal/trinary"
)

// hierarchyLimit bounds ancestor traversal for pathological class graphs.
const hierarchyLimit = 100

// Table is the symbol registry shared by all checks in a run. It is
// populated once and read-only afterwards, so concurrent readers need no
// locking.
type Table struct {
	classes   map[string]*ClassInfo
	functions map[string]*FunctionInfo
	constants map[string]struct{}
	aliases   map[string]map[string]string
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{
		classes:   make(map[string]*ClassInfo),
		functions: make(map[string]*FunctionInfo),
		constants: make(map[string]struct{}),
		aliases:   make(map[string]map[string]string),
	}
}

// RegisterClass adds a class entry. A later registration for the same FQN
// replaces the earlier one.
func (t *Table) RegisterClass(info *ClassInfo) {
	t.classes[strings.ToLower(info.FullName)] = info
}

// RegisterFunction adds a function entry. A later registration for the same
// FQN replaces the earlier one.
func (t *Table) RegisterFunction(info *FunctionInfo) {
	t.functions[strings.ToLower(info.FullName)] = info
}

// RegisterConstant adds a constant by fully-qualified name. Constant lookup
// is case-sensitive, matching PHP.
func (t *Table) RegisterConstant(name string) {
	t.constants[name] = struct{}{}
}

// Class returns a class entry by FQN, case-insensitively.
func (t *Table) Class(name string) (*ClassInfo, bool) {
	info, ok := t.classes[strings.ToLower(name)]
	return info, ok
}

// Function returns a function entry by FQN, case-insensitively.
func (t *Table) Function(name string) (*FunctionInfo, bool) {
	info, ok := t.functions[strings.ToLower(name)]
	return info, ok
}

// ClassExists reports whether a class FQN is registered.
func (t *Table) ClassExists(name string) bool {
	_, ok := t.classes[strings.ToLower(name)]
	return ok
}

// FunctionExists reports whether a function FQN is registered.
func (t *Table) FunctionExists(name string) bool {
	_, ok := t.functions[strings.ToLower(name)]
	return ok
}

// ConstantExists reports whether a constant is registered.
func (t *Table) ConstantExists(name string) bool {
	_, ok := t.constants[name]
	return ok
}

// SetAliases stores a file's import aliases as alias -> FQN. Alias lookup
// is case-insensitive, so keys are lowered on the way in.
func (t *Table) SetAliases(file string, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}
	lowered := make(map[string]string, len(aliases))
	for alias, fqn := range aliases {
		lowered[strings.ToLower(alias)] = fqn
	}
	t.aliases[file] = lowered
}

// Aliases returns the import aliases recorded for a file.
func (t *Table) Aliases(file string) map[string]string {
	return t.aliases[file]
}

// ResolveClassName expands a class reference to its FQN using the file's
// import aliases and the surrounding namespace. A leading backslash marks
// the name as already fully qualified.
func (t *Table) ResolveClassName(name, file, namespace string) string {
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}

	first, rest := name, ""
	if idx := strings.IndexByte(name, '\\'); idx >= 0 {
		first, rest = name[:idx], name[idx:]
	}
	if aliases := t.aliases[file]; aliases != nil {
		if fqn, ok := aliases[strings.ToLower(first)]; ok {
			return fqn + rest
		}
	}

	if namespace != "" {
		return namespace + `\` + name
	}
	return name
}

// AllClasses returns every class entry, sorted by FQN for deterministic
// serialization.
func (t *Table) AllClasses() []*ClassInfo {
	classes := make([]*ClassInfo, 0, len(t.classes))
	for _, info := range t.classes {
		classes = append(classes, info)
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].FullName < classes[j].FullName
	})
	return classes
}

// AllFunctions returns every function entry, sorted by FQN.
func (t *Table) AllFunctions() []*FunctionInfo {
	functions := make([]*FunctionInfo, 0, len(t.functions))
	for _, info := range t.functions {
		functions = append(functions, info)
	}
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].FullName < functions[j].FullName
	})
	return functions
}

// ClassHasMethod answers whether a class or any of its ancestors declares
// a method. Parents, interfaces and traits are all searched. The answer is
// Maybe when the class is unknown or any reachable ancestor has an
// uncollected method set, so callers report only definite absence.
func (t *Table) ClassHasMethod(class, method string) trinary.Value {
	return t.searchHierarchy(class, func(info *ClassInfo) (bool, bool) {
		return info.HasMethod(method), info.MethodsKnown()
	}, true)
}

// ClassHasStaticProperty answers whether a class or any of its ancestors
// declares a static property. Interfaces are skipped since they cannot
// declare properties.
func (t *Table) ClassHasStaticProperty(class, property string) trinary.Value {
	return t.searchHierarchy(class, func(info *ClassInfo) (bool, bool) {
		return info.HasStaticProperty(property), info.StaticPropertiesKnown()
	}, false)
}

// searchHierarchy walks the ancestor graph starting at class, asking probe
// for (declared, known) at each node. It returns Yes on the first positive
// answer, No when every reachable ancestor was known and negative, and
// Maybe when any part of the graph was missing or uncollected.
func (t *Table) searchHierarchy(class string, probe func(*ClassInfo) (bool, bool), includeInterfaces bool) trinary.Value {
	start, ok := t.Class(class)
	if !ok {
		return trinary.Maybe
	}

	result := trinary.No
	visited := map[string]bool{strings.ToLower(start.FullName): true}
	queue := []*ClassInfo{start}

	for len(queue) > 0 {
		if len(visited) > hierarchyLimit {
			return trinary.Maybe
		}
		info := queue[0]
		queue = queue[1:]

		declared, known := probe(info)
		if declared {
			return trinary.Yes
		}
		if !known {
			result = trinary.Maybe
		}

		ancestors := make([]string, 0, 1+len(info.Interfaces)+len(info.Traits))
		if info.Parent != "" {
			ancestors = append(ancestors, info.Parent)
		}
		if includeInterfaces {
			ancestors = append(ancestors, info.Interfaces...)
		}
		ancestors = append(ancestors, info.Traits...)

		for _, name := range ancestors {
			key := strings.ToLower(name)
			if visited[key] {
				continue
			}
			visited[key] = true
			ancestor, found := t.Class(name)
			if !found {
				result = trinary.Maybe
				continue
			}
			queue = append(queue, ancestor)
		}
	}
	return result
}

// Merge folds another table into this one. The merged table's entry wins on
// FQN collision.
func (t *Table) Merge(other *Table) {
	for key, info := range other.classes {
		t.classes[key] = info
	}
	for key, info := range other.functions {
		t.functions[key] = info
	}
	for name := range other.constants {
		t.constants[name] = struct{}{}
	}
	for file, aliases := range other.aliases {
		t.aliases[file] = aliases
	}
}

// Fingerprint returns a stable digest of everything lookups can observe:
// class hierarchy edges, member sets and arities, function arities and
// constant names. Two tables with equal fingerprints answer every
// existence query the same way, so the digest can key caches of results
// derived from the table.
func (t *Table) Fingerprint() string {
	h := sha256.New()

	for _, class := range t.AllClasses() {
		fmt.Fprintf(h, "C %s < %s known=%v,%v\n",
			class.FullName, class.Parent, class.MethodsKnown(), class.StaticPropertiesKnown())
		for _, iface := range class.Interfaces {
			fmt.Fprintf(h, " i %s\n", iface)
		}
		for _, trait := range class.Traits {
			fmt.Fprintf(h, " t %s\n", trait)
		}
		for _, name := range class.MethodNames() {
			m, _ := class.Method(name)
			max, bounded := m.MaxArgs()
			fmt.Fprintf(h, " m %s %d %d %v\n", name, m.RequiredArgs(), max, bounded)
		}
		for _, name := range class.StaticPropertyNames() {
			fmt.Fprintf(h, " p %s\n", name)
		}
	}

	for _, fn := range t.AllFunctions() {
		max, bounded := fn.MaxArgs()
		fmt.Fprintf(h, "F %s %d %d %v\n", fn.FullName, fn.RequiredArgs(), max, bounded)
	}

	constants := make([]string, 0, len(t.constants))
	for name := range t.constants {
		constants = append(constants, name)
	}
	sort.Strings(constants)
	for _, name := range constants {
		fmt.Fprintf(h, "K %s\n", name)
	}

	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Stats summarizes the table's contents.
type Stats struct {
	Classes   int
	Functions int
	Constants int
}

// Stats returns entry counts.
func (t *Table) Stats() Stats {
	return Stats{
		Classes:   len(t.classes),
		Functions: len(t.functions),
		Constants: len(t.constants),
	}
}
