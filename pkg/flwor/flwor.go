// Package flwor connects a window clause to the clauses that follow it in
// a FLWOR expression.
//
// Every clause is a Stream of tuples, each tuple an environment holding
// the variables bound so far. Windows turns a window iterator into such a
// stream; Where, Let, Count and OrderBy transform it; Return drains it.
//
//	s := flwor.Windows(spec.Evaluate(src), outer)
//	s = flwor.Where(s, notEmpty)
//	s = flwor.Count(s, "n")
//	out, err := flwor.Return(ctx, s, build)
package flwor

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

// Stream is a pull-based sequence of tuples.
type Stream interface {
	// Next returns the next tuple. ok is false once the stream is exhausted.
	Next(ctx context.Context) (tuple *env.Environment, ok bool, err error)
}

// Expr computes a value from a tuple.
type Expr func(ctx context.Context, tuple *env.Environment) (interface{}, error)

// StreamFunc adapts a function to the Stream interface.
type StreamFunc func(ctx context.Context) (*env.Environment, bool, error)

// Next implements Stream.
func (f StreamFunc) Next(ctx context.Context) (*env.Environment, bool, error) {
	return f(ctx)
}

// Windows binds each window of it, with its boundary variables, on top of
// outer.
func Windows(it *window.Iterator, outer *env.Environment) Stream {
	return StreamFunc(func(ctx context.Context) (*env.Environment, bool, error) {
		rec, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		return rec.Bind(outer), true, nil
	})
}

// Where keeps the tuples for which pred holds.
func Where(s Stream, pred window.Predicate) Stream {
	return StreamFunc(func(ctx context.Context) (*env.Environment, bool, error) {
		for {
			tuple, ok, err := s.Next(ctx)
			if err != nil || !ok {
				return nil, false, err
			}
			keep, err := pred(ctx, tuple)
			if err != nil {
				return nil, false, err
			}
			if keep {
				return tuple, true, nil
			}
		}
	})
}

// Let binds name to the value of fn in every tuple.
func Let(s Stream, name string, fn Expr) Stream {
	return StreamFunc(func(ctx context.Context) (*env.Environment, bool, error) {
		tuple, ok, err := s.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		v, err := fn(ctx, tuple)
		if err != nil {
			return nil, false, err
		}
		return tuple.Extend(name, v), true, nil
	})
}

// Count binds name to the 1-based ordinal of every tuple.
func Count(s Stream, name string) Stream {
	var n int64
	return StreamFunc(func(ctx context.Context) (*env.Environment, bool, error) {
		tuple, ok, err := s.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		n++
		return tuple.Extend(name, n), true, nil
	})
}

// OrderBy sorts the stream by the value of key. Sorting is stable and
// materializes the whole input on the first call to Next.
//
// Keys must be all numbers or all strings; the empty sequence sorts least.
func OrderBy(s Stream, key Expr, descending bool) Stream {
	var (
		sorted []*env.Environment
		loaded bool
		i      int
	)
	return StreamFunc(func(ctx context.Context) (*env.Environment, bool, error) {
		if !loaded {
			var err error
			sorted, err = sortTuples(ctx, s, key, descending)
			if err != nil {
				return nil, false, err
			}
			loaded = true
		}
		if i >= len(sorted) {
			return nil, false, nil
		}
		tuple := sorted[i]
		sorted[i] = nil
		i++
		return tuple, true, nil
	})
}

type keyed struct {
	tuple *env.Environment
	key   interface{}
}

func sortTuples(ctx context.Context, s Stream, key Expr, descending bool) ([]*env.Environment, error) {
	var rows []keyed
	kind := ""
	for {
		tuple, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		k, err := key(ctx, tuple)
		if err != nil {
			return nil, err
		}
		k, err = atomize(k)
		if err != nil {
			return nil, err
		}
		if k != nil {
			kk := keyKind(k)
			if kk == "" {
				return nil, types.NewError(types.ErrTypeMismatch,
					fmt.Sprintf("order by key must be a number or a string, got %T", k), -1)
			}
			if kind != "" && kk != kind {
				return nil, types.NewError(types.ErrTypeMismatch,
					fmt.Sprintf("order by keys mix %s and %s values", kind, kk), -1)
			}
			kind = kk
		}
		rows = append(rows, keyed{tuple: tuple, key: k})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if descending {
			return less(rows[b].key, rows[a].key)
		}
		return less(rows[a].key, rows[b].key)
	})

	out := make([]*env.Environment, len(rows))
	for i, r := range rows {
		out[i] = r.tuple
	}
	return out, nil
}

// atomize unwraps singleton sequences and maps the empty sequence to nil.
func atomize(v interface{}) (interface{}, error) {
	switch s := v.(type) {
	case types.EmptySequence:
		return nil, nil
	case []interface{}:
		switch len(s) {
		case 0:
			return nil, nil
		case 1:
			return atomize(s[0])
		}
		return nil, types.NewError(types.ErrTypeMismatch,
			fmt.Sprintf("order by key is a sequence of %d items", len(s)), -1)
	case int:
		return float64(s), nil
	case int64:
		return float64(s), nil
	case uint64:
		return float64(s), nil
	}
	return v, nil
}

func keyKind(v interface{}) string {
	switch v.(type) {
	case float64:
		return "number"
	case string:
		return "string"
	}
	return ""
}

func less(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	switch x := a.(type) {
	case float64:
		return x < b.(float64)
	case string:
		return x < b.(string)
	}
	return false
}

// Return evaluates fn for every tuple and collects the results. Results
// that are sequences are flattened into the output.
func Return(ctx context.Context, s Stream, fn Expr) ([]interface{}, error) {
	var out []interface{}
	for {
		tuple, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		v, err := fn(ctx, tuple)
		if err != nil {
			return nil, err
		}
		switch r := v.(type) {
		case types.EmptySequence:
		case []interface{}:
			out = append(out, r...)
		default:
			out = append(out, v)
		}
	}
}
