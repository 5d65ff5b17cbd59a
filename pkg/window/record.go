package window

import (
	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/types"
)

// Record is one window produced by the evaluator.
//
// A Record is never touched by the evaluator after it has been returned;
// the consumer owns it, including the Items slice.
type Record struct {
	// Var is the window variable name of the clause.
	Var string
	// Items are the window's items in source order.
	Items []types.Item
	// StartPos and EndPos are the 1-based source positions of the first and
	// last item of the window.
	StartPos uint64
	EndPos   uint64
	// Start holds the values bound to the start condition's variables.
	Start map[string]types.Item
	// End holds the values bound to the end condition's variables. It is
	// empty when the clause has no end condition or the window was closed
	// by the end of the input.
	End map[string]types.Item
}

// Len returns the number of items in the window.
func (r *Record) Len() int {
	return len(r.Items)
}

// Bindings returns every variable the record binds: the window variable
// (as a sequence) and all start and end boundary variables.
func (r *Record) Bindings() map[string]interface{} {
	m := make(map[string]interface{}, 1+len(r.Start)+len(r.End))
	for k, v := range r.Start {
		m[k] = v
	}
	for k, v := range r.End {
		m[k] = v
	}
	m[r.Var] = r.sequence()
	return m
}

// Bind layers the record's bindings on top of outer, producing the tuple
// the downstream clauses of the FLWOR expression see.
func (r *Record) Bind(outer *env.Environment) *env.Environment {
	return outer.ExtendMap(r.Bindings())
}

func (r *Record) sequence() []interface{} {
	out := make([]interface{}, len(r.Items))
	copy(out, r.Items)
	return out
}
