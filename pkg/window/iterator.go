package window

import (
	"context"
	"fmt"
	"iter"

	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
)

// Iterator pulls windows from an evaluation on demand. The source is only
// read as far as needed to produce the next window.
//
// An Iterator is not safe for concurrent use.
type Iterator struct {
	spec *Spec
	eng  engine
	opts Options

	err  error
	done bool
}

// Evaluate starts evaluating the clause over src. The clause is validated
// first; a static error is reported by the first call to Next, before
// anything is read from src.
func (s *Spec) Evaluate(src seq.Source, opts ...Option) *Iterator {
	options := newOptions(opts)
	it := &Iterator{spec: s, opts: options}
	if err := s.Validate(); err != nil {
		it.err = err
		return it
	}
	it.eng = newEngine(s, src, options)
	return it
}

// Next returns the next window. ok is false when no window is left or an
// error occurred. Once an error has been returned, every later call
// returns the same error.
func (it *Iterator) Next(ctx context.Context) (*Record, bool, error) {
	if it.err != nil {
		return nil, false, it.err
	}
	if it.done {
		return nil, false, nil
	}

	rec, err := it.eng.next(ctx)
	if err != nil {
		return nil, false, it.fail(err)
	}
	if rec == nil {
		it.done = true
		return nil, false, nil
	}
	if err := it.checkItems(rec); err != nil {
		return nil, false, it.fail(err)
	}

	it.opts.Observer.WindowEmitted(it.spec.Kind, rec.Len())
	return rec, true, nil
}

// Err returns the error that stopped the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}

// All returns a range-over-func view of the remaining windows. Iteration
// stops after the first error, which is yielded with a nil record.
func (it *Iterator) All(ctx context.Context) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, ok, err := it.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok || !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect drains the iterator. On error the windows produced so far are
// discarded.
func (it *Iterator) Collect(ctx context.Context) ([]*Record, error) {
	var out []*Record
	for rec, err := range it.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (it *Iterator) fail(err error) error {
	it.err = err
	it.eng = nil
	if it.opts.Debug {
		it.opts.Logger.Debug("window evaluation failed", "kind", it.spec.Kind.String(), "var", it.spec.Var, "error", err)
	}
	return err
}

// checkItems applies the declared item type to a closed window.
func (it *Iterator) checkItems(rec *Record) error {
	t := it.spec.ItemType
	if t == nil {
		return nil
	}
	for i, item := range rec.Items {
		if err := t.Check(item); err != nil {
			pos := int64(rec.StartPos) + int64(i)
			return types.NewError(types.ErrTypeMismatch,
				fmt.Sprintf("window item does not match declared type %s", t), pos).
				WithVariable(it.spec.Var).
				WithCause(err)
		}
	}
	return nil
}
