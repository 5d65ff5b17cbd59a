// Package env provides the immutable binding environment used to evaluate
// window boundary predicates.
//
// An Environment is a persistent linked scope: Extend returns a new
// environment layered on its parent and never mutates the parent, so an
// environment can be shared freely between windows, predicates and
// goroutines.
//
// # Example
//
//	outer := env.New().Extend("limit", 3)
//	scope := outer.Extend("s", int64(1)).Extend("e", int64(3))
//	v, ok := scope.Lookup("limit") // 3, true
package env

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandrolain/gowindow/pkg/types"
)

// Environment maps variable names to values. A nil *Environment is a valid
// empty environment.
type Environment struct {
	// parent is the enclosing scope
	parent *Environment

	name  string
	value types.Item

	// depth counts the bindings in the chain
	depth int
}

// New returns an empty environment.
func New() *Environment {
	return nil
}

// FromMap creates an environment holding the given bindings, added in
// name order so the result is deterministic.
func FromMap(bindings map[string]interface{}) *Environment {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var e *Environment
	for _, name := range names {
		e = e.Extend(name, bindings[name])
	}
	return e
}

// Extend returns a new environment binding name to value on top of e.
// A binding shadows any binding of the same name in e.
func (e *Environment) Extend(name string, value types.Item) *Environment {
	return &Environment{
		parent: e,
		name:   name,
		value:  value,
		depth:  e.Depth() + 1,
	}
}

// ExtendMap layers every binding of m on top of e, in name order.
func (e *Environment) ExtendMap(m map[string]interface{}) *Environment {
	if len(m) == 0 {
		return e
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e = e.Extend(name, m[name])
	}
	return e
}

// Lookup retrieves a variable binding.
// It searches the innermost binding first.
func (e *Environment) Lookup(name string) (types.Item, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}

// MustLookup is like Lookup but panics when name is not bound.
// Predicates only reference declared variables, so a miss is a bug in the
// host engine rather than a runtime condition.
func (e *Environment) MustLookup(name string) types.Item {
	v, ok := e.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("env: variable $%s is not bound", name))
	}
	return v
}

// Parent returns the enclosing environment.
func (e *Environment) Parent() *Environment {
	if e == nil {
		return nil
	}
	return e.parent
}

// Depth returns the number of bindings in the chain, shadowed ones included.
func (e *Environment) Depth() int {
	if e == nil {
		return 0
	}
	return e.depth
}

// Names returns the visible variable names in sorted order.
func (e *Environment) Names() []string {
	seen := make(map[string]struct{}, e.Depth())
	var names []string
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := seen[cur.name]; ok {
			continue
		}
		seen[cur.name] = struct{}{}
		names = append(names, cur.name)
	}
	sort.Strings(names)
	return names
}

// Map flattens the visible bindings into a new map.
func (e *Environment) Map() map[string]interface{} {
	m := make(map[string]interface{}, e.Depth())
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := m[cur.name]; !ok {
			m[cur.name] = cur.value
		}
	}
	return m
}

// String returns a string representation of the environment.
func (e *Environment) String() string {
	names := e.Names()
	for i, name := range names {
		names[i] = "$" + name
	}
	return fmt.Sprintf("Environment{depth=%d, vars=[%s]}", e.Depth(), strings.Join(names, " "))
}
