// Package gowindow evaluates XQuery 3.0 tumbling and sliding window clauses
// over streams of JSON items.
//
// A window clause groups a sequence into windows delimited by a start and
// an optional end condition:
//
//	for tumbling window $w in $items
//	    start $s at $i when $s.kind == "open"
//	    only end at $j when $j - $i == 2
//
// The clause is described declaratively with a ClauseDef whose conditions
// are CEL expressions, then compiled once and evaluated many times.
//
// # Quick Start
//
//	def := &gowindow.ClauseDef{
//	    Kind:  "tumbling",
//	    Var:   "w",
//	    Start: &gowindow.BoundaryDef{At: "s"},
//	    End:   &gowindow.BoundaryDef{At: "e", When: "e - s == 2"},
//	}
//	windows, err := gowindow.Windows(ctx, def, items)
//
// # More Information
//
//   - Engines and the iterator API: github.com/sandrolain/gowindow/pkg/window
//   - Item sources: github.com/sandrolain/gowindow/pkg/seq
//   - Downstream clauses: github.com/sandrolain/gowindow/pkg/flwor
package gowindow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sandrolain/gowindow/pkg/predicate/celpred"
	"github.com/sandrolain/gowindow/pkg/schema"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

// Version returns the current version of GoWindow.
func Version() string {
	return "v0.1.0-dev"
}

// BoundaryDef declares a start or end condition. Every variable name is
// optional; When is a CEL expression over the declared variables and
// defaults to true.
type BoundaryDef struct {
	Item     string `json:"item,omitempty"`
	At       string `json:"at,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	When     string `json:"when,omitempty"`
}

// ClauseDef is the declarative form of a window clause.
type ClauseDef struct {
	// Kind is "tumbling" or "sliding".
	Kind  string       `json:"kind"`
	Var   string       `json:"var"`
	Start *BoundaryDef `json:"start"`
	End   *BoundaryDef `json:"end,omitempty"`
	// OnlyEnd drops windows the end condition never closed.
	OnlyEnd bool `json:"only_end,omitempty"`
	// ItemType is an item type signature such as "n", "(ns)" or "o?".
	ItemType string `json:"item_type,omitempty"`
	// ItemSchema is a JSON Schema every window item must satisfy.
	ItemSchema json.RawMessage `json:"item_schema,omitempty"`
}

// ParseClause decodes a JSON clause definition.
func ParseClause(data []byte) (*ClauseDef, error) {
	var def ClauseDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, types.NewStaticError(types.ErrSyntax, "invalid clause definition").WithCause(err)
	}
	return &def, nil
}

// CompileOptions configures Compile.
type CompileOptions struct {
	// Compiler compiles the CEL conditions. Defaults to a shared compiler.
	Compiler *celpred.Compiler
	// Outer lists the variables of the enclosing FLWOR scope the conditions
	// may reference. Their values are supplied at evaluation time with
	// window.WithEnvironment.
	Outer []string
}

// CompileOption configures Compile.
type CompileOption func(*CompileOptions)

// WithCompiler sets the CEL compiler.
func WithCompiler(c *celpred.Compiler) CompileOption {
	return func(opts *CompileOptions) {
		opts.Compiler = c
	}
}

// WithOuterVariables declares variables of the enclosing scope.
func WithOuterVariables(names ...string) CompileOption {
	return func(opts *CompileOptions) {
		opts.Outer = append(opts.Outer, names...)
	}
}

var defaultCompiler = sync.OnceValue(func() *celpred.Compiler {
	return celpred.New()
})

// Compile builds and validates a window clause.
//
// The returned spec is immutable and safe for concurrent use.
func Compile(def *ClauseDef, opts ...CompileOption) (*window.Spec, error) {
	if def == nil {
		return nil, types.NewStaticError(types.ErrSyntax, "missing clause definition")
	}
	options := CompileOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Compiler == nil {
		options.Compiler = defaultCompiler()
	}

	spec := &window.Spec{Var: def.Var, OnlyEnd: def.OnlyEnd}
	switch def.Kind {
	case "tumbling":
		spec.Kind = window.Tumbling
	case "sliding":
		spec.Kind = window.Sliding
	default:
		return nil, types.NewStaticError(types.ErrSyntax, "unknown window kind %q", def.Kind)
	}

	// Names are checked before any CEL compilation so that a duplicate is
	// reported as such rather than as a CEL redeclaration.
	spec.Start = conditionOf(def.Start)
	spec.End = conditionOf(def.End)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var err error
	if spec.Start.When, err = compileWhen(options, def.Start, options.Outer, spec.Start.Names()); err != nil {
		return nil, fmt.Errorf("start condition: %w", err)
	}
	if spec.End != nil {
		if spec.End.When, err = compileWhen(options, def.End, options.Outer, spec.Start.Names(), spec.End.Names()); err != nil {
			return nil, fmt.Errorf("end condition: %w", err)
		}
	}

	if spec.ItemType, err = itemType(def); err != nil {
		return nil, err
	}
	return spec, nil
}

// MustCompile is like Compile but panics if the clause cannot be compiled.
func MustCompile(def *ClauseDef, opts ...CompileOption) *window.Spec {
	spec, err := Compile(def, opts...)
	if err != nil {
		panic(fmt.Sprintf("gowindow: Compile: %v", err))
	}
	return spec
}

// Windows compiles def and evaluates it over data in a single call.
//
// For repeated evaluations of the same clause, use Compile instead.
func Windows(ctx context.Context, def *ClauseDef, data []interface{}, opts ...window.Option) ([]*window.Record, error) {
	spec, err := Compile(def)
	if err != nil {
		return nil, err
	}
	return spec.Evaluate(seq.FromSlice(data), opts...).Collect(ctx)
}

// Result is the JSON form of a window.
type Result struct {
	Start    uint64                 `json:"start"`
	End      uint64                 `json:"end"`
	Items    []interface{}          `json:"items"`
	Bindings map[string]interface{} `json:"bindings,omitempty"`
}

// NewResult converts a record to its JSON form. Bindings holds the start
// and end boundary variables.
func NewResult(rec *window.Record) Result {
	r := Result{Start: rec.StartPos, End: rec.EndPos, Items: rec.Items}
	if r.Items == nil {
		r.Items = []interface{}{}
	}
	if n := len(rec.Start) + len(rec.End); n > 0 {
		r.Bindings = make(map[string]interface{}, n)
		for k, v := range rec.Start {
			r.Bindings[k] = v
		}
		for k, v := range rec.End {
			r.Bindings[k] = v
		}
	}
	return r
}

func conditionOf(b *BoundaryDef) *window.Condition {
	if b == nil {
		return nil
	}
	var decls []window.Decl
	if b.Item != "" {
		decls = append(decls, window.Var(b.Item))
	}
	if b.At != "" {
		decls = append(decls, window.At(b.At))
	}
	if b.Previous != "" {
		decls = append(decls, window.Previous(b.Previous))
	}
	if b.Next != "" {
		decls = append(decls, window.Next(b.Next))
	}
	c := window.NewCondition(window.True, decls...)
	c.Source = b.When
	return c
}

func compileWhen(opts CompileOptions, b *BoundaryDef, scopes ...[]string) (window.Predicate, error) {
	if b.When == "" {
		return window.True, nil
	}
	var names []string
	for _, s := range scopes {
		names = append(names, s...)
	}
	return opts.Compiler.Compile(b.When, names...)
}

func itemType(def *ClauseDef) (types.SequenceType, error) {
	switch {
	case def.ItemType != "" && len(def.ItemSchema) > 0:
		return nil, types.NewStaticError(types.ErrSyntax, "item_type and item_schema are mutually exclusive")
	case def.ItemType != "":
		return types.ParseItemType(def.ItemType)
	case len(def.ItemSchema) > 0:
		return schema.Compile(string(def.ItemSchema))
	}
	return nil, nil
}
