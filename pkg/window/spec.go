// Package window implements the tumbling and sliding window clauses of a
// FLWOR expression.
//
// A Spec describes one clause: the window variable, the start condition,
// an optional end condition, the "only end" flag and an optional declared
// item type. Evaluating a Spec over a source yields Records lazily, one per
// window, in increasing order of start position.
//
// # Example
//
//	spec := &window.Spec{
//	    Kind:  window.Tumbling,
//	    Var:   "w",
//	    Start: window.NewCondition(window.True, window.At("s")),
//	    End: window.NewCondition(func(_ context.Context, sc *env.Environment) (bool, error) {
//	        return sc.MustLookup("e").(int64)-sc.MustLookup("s").(int64) == 2, nil
//	    }, window.At("e")),
//	}
//	records, err := spec.Evaluate(seq.Range(1, 10)).Collect(ctx)
//	// [1 2 3] [4 5 6] [7 8 9] [10]
//
// # Concurrency
//
// A Spec is immutable once built and may be evaluated by many goroutines
// at the same time. Each Iterator is owned by a single consumer.
package window

import (
	"github.com/sandrolain/gowindow/pkg/types"
)

// Kind selects the windowing strategy.
type Kind int

const (
	// Tumbling windows never overlap: a new window is only looked for once
	// the previous one has closed.
	Tumbling Kind = iota
	// Sliding windows may overlap: every item satisfying the start
	// condition anchors its own window.
	Sliding
)

// String returns the clause keyword.
func (k Kind) String() string {
	switch k {
	case Tumbling:
		return "tumbling"
	case Sliding:
		return "sliding"
	}
	return "unknown"
}

// Spec is a compiled window clause.
type Spec struct {
	Kind Kind
	// Var is the window variable name, without the leading "$".
	Var   string
	Start *Condition
	// End is optional for tumbling windows. Without it a window extends up
	// to the item before the next start item.
	End *Condition
	// OnlyEnd drops windows that are still open when the input ends.
	OnlyEnd bool
	// ItemType, when set, is checked against every item of a window as the
	// window closes.
	ItemType types.SequenceType
}

// Validate performs the static checks of the clause. It never looks at the
// input, so an invalid clause fails the same way over an empty sequence.
func (s *Spec) Validate() error {
	if s == nil {
		return types.NewStaticError(types.ErrSyntax, "nil window clause")
	}
	if s.Kind != Tumbling && s.Kind != Sliding {
		return types.NewStaticError(types.ErrSyntax, "unknown window kind %d", int(s.Kind))
	}
	if s.Var == "" {
		return types.NewStaticError(types.ErrSyntax, "window variable is required")
	}
	if s.Start == nil || s.Start.When == nil {
		return types.NewStaticError(types.ErrSyntax, "%s window requires a start condition", s.Kind)
	}
	if s.End == nil {
		if s.Kind == Sliding {
			return types.NewStaticError(types.ErrSyntax, "sliding window requires an end condition")
		}
		if s.OnlyEnd {
			return types.NewStaticError(types.ErrSyntax, "only end requires an end condition")
		}
	} else if s.End.When == nil {
		return types.NewStaticError(types.ErrSyntax, "end condition has no predicate")
	}

	if err := validateDecls("start", s.Start); err != nil {
		return err
	}
	if err := validateDecls("end", s.End); err != nil {
		return err
	}

	seen := map[string]string{s.Var: "window variable"}
	for _, b := range []struct {
		label string
		cond  *Condition
	}{{"start", s.Start}, {"end", s.End}} {
		if b.cond == nil {
			continue
		}
		for _, d := range b.cond.Decls {
			where := b.label + " " + d.Role.String() + " variable"
			if prev, dup := seen[d.Name]; dup {
				return types.NewStaticError(types.ErrDuplicateVariable,
					"%s conflicts with %s of the same name", where, prev).WithVariable(d.Name)
			}
			seen[d.Name] = where
		}
	}
	return nil
}

// validateDecls checks that every role is declared at most once and in
// the grammar order item, at, previous, next. A declaration out of that
// order is a name conflict (XQST0103); a repeated role is XPST0003.
func validateDecls(label string, c *Condition) error {
	if c == nil {
		return nil
	}
	last := Role(-1)
	for _, d := range c.Decls {
		if d.Name == "" {
			return types.NewStaticError(types.ErrSyntax, "%s %s variable has no name", label, d.Role)
		}
		if d.Role < RoleItem || d.Role > RoleNext {
			return types.NewStaticError(types.ErrSyntax, "%s condition declares unknown role %d", label, int(d.Role))
		}
		if d.Role == last {
			return types.NewStaticError(types.ErrSyntax, "%s condition declares %s twice", label, d.Role).WithVariable(d.Name)
		}
		if d.Role < last {
			return types.NewStaticError(types.ErrDuplicateVariable,
				"%s condition declares %s after %s", label, d.Role, last).WithVariable(d.Name)
		}
		last = d.Role
	}
	return nil
}

// Names returns every variable the clause binds: the window variable first,
// then the start and end variables in textual order.
func (s *Spec) Names() []string {
	names := []string{s.Var}
	names = append(names, s.Start.Names()...)
	if s.End != nil {
		names = append(names, s.End.Names()...)
	}
	return names
}
