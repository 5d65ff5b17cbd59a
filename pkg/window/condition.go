package window

import (
	"context"

	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
)

// Predicate is a boundary "when" condition. It receives the outer scope
// extended with the condition's declared variables and returns the
// effective boolean value of the host expression.
//
// Errors are propagated to the caller unchanged.
type Predicate func(ctx context.Context, scope *env.Environment) (bool, error)

// True is a predicate that always holds.
func True(context.Context, *env.Environment) (bool, error) { return true, nil }

// False is a predicate that never holds.
func False(context.Context, *env.Environment) (bool, error) { return false, nil }

// Role identifies what a boundary variable is bound to.
type Role int

const (
	RoleItem     Role = iota // the boundary item ("$s")
	RolePosition             // its 1-based position ("at $p")
	RolePrevious             // the item before it ("previous $x")
	RoleNext                 // the item after it ("next $y")
)

// String returns the keyword introducing the role.
func (r Role) String() string {
	switch r {
	case RoleItem:
		return "item"
	case RolePosition:
		return "at"
	case RolePrevious:
		return "previous"
	case RoleNext:
		return "next"
	}
	return "unknown"
}

// Decl declares one boundary variable.
type Decl struct {
	Role Role
	Name string
}

// Var declares the boundary item variable.
func Var(name string) Decl { return Decl{Role: RoleItem, Name: name} }

// At declares the positional variable.
func At(name string) Decl { return Decl{Role: RolePosition, Name: name} }

// Previous declares the variable bound to the preceding item.
func Previous(name string) Decl { return Decl{Role: RolePrevious, Name: name} }

// Next declares the variable bound to the following item.
func Next(name string) Decl { return Decl{Role: RoleNext, Name: name} }

// Condition is a start or end boundary: the declared variables, in the
// order they were written, plus the predicate evaluated over them.
type Condition struct {
	Decls []Decl
	When  Predicate
	// Source is the predicate text, used in log output only.
	Source string
}

// NewCondition creates a condition. decls must be given in textual order;
// Spec.Validate rejects orders the grammar does not allow.
func NewCondition(when Predicate, decls ...Decl) *Condition {
	return &Condition{Decls: decls, When: when}
}

// ItemVar returns the name bound to the boundary item, or "".
func (c *Condition) ItemVar() string { return c.varFor(RoleItem) }

// PositionVar returns the positional variable name, or "".
func (c *Condition) PositionVar() string { return c.varFor(RolePosition) }

// PreviousVar returns the previous-item variable name, or "".
func (c *Condition) PreviousVar() string { return c.varFor(RolePrevious) }

// NextVar returns the next-item variable name, or "".
func (c *Condition) NextVar() string { return c.varFor(RoleNext) }

// Names returns the declared variable names in textual order.
func (c *Condition) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Decls))
	for _, d := range c.Decls {
		names = append(names, d.Name)
	}
	return names
}

func (c *Condition) varFor(role Role) string {
	if c == nil {
		return ""
	}
	for _, d := range c.Decls {
		if d.Role == role {
			return d.Name
		}
	}
	return ""
}

// bind layers the condition's variables for step on top of scope and
// returns the new scope together with a snapshot of the bound values.
func (c *Condition) bind(scope *env.Environment, step seq.Step) (*env.Environment, map[string]types.Item) {
	vars := make(map[string]types.Item, len(c.Decls))
	for _, d := range c.Decls {
		var v types.Item
		switch d.Role {
		case RoleItem:
			v = step.Cur
		case RolePosition:
			v = int64(step.Pos)
		case RolePrevious:
			v = step.PrevOrEmpty()
		case RoleNext:
			v = step.NextOrEmpty()
		}
		scope = scope.Extend(d.Name, v)
		vars[d.Name] = v
	}
	return scope, vars
}
