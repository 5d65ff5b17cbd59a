package window

import (
	"context"

	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
)

// tumblingEngine scans the source once, alternating between seeking a start
// item and seeking the end of the open window.
type tumblingEngine struct {
	sc   *scanner
	open *openWindow
	buf  []types.Item
	done bool
}

func (t *tumblingEngine) next(ctx context.Context) (*Record, error) {
	if t.done {
		return nil, nil
	}
	for {
		step, ok, err := t.sc.advance(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			t.done = true
			return t.finish(), nil
		}

		if t.sc.spec.End == nil {
			rec, err := t.nextStart(ctx, step)
			if err != nil || rec != nil {
				return rec, err
			}
			continue
		}

		if t.open == nil {
			w, err := t.sc.matchStart(ctx, step)
			if err != nil {
				return nil, err
			}
			if w == nil {
				continue
			}
			t.open = w
		}

		// The end condition is tested from the start item onward, so a
		// single item can both open and close a window.
		t.buf = append(t.buf, step.Cur)
		if err := t.sc.matchEnd(ctx, t.open, step); err != nil {
			return nil, err
		}
		if t.open.closed {
			return t.emit(), nil
		}
	}
}

// nextStart handles clauses without an end condition: every start item
// closes the open window just before itself and opens the next one.
func (t *tumblingEngine) nextStart(ctx context.Context, step seq.Step) (*Record, error) {
	w, err := t.sc.matchStart(ctx, step)
	if err != nil {
		return nil, err
	}
	if w == nil {
		if t.open != nil {
			t.buf = append(t.buf, step.Cur)
		}
		return nil, nil
	}

	var rec *Record
	if t.open != nil {
		t.open.closed = true
		t.open.endPos = step.Pos - 1
		t.open.endVars = map[string]types.Item{}
		rec = t.emit()
	}
	t.open = w
	t.buf = append(t.buf, step.Cur)
	return rec, nil
}

// finish handles the end of the input while a window is open.
func (t *tumblingEngine) finish() *Record {
	if t.open == nil {
		return nil
	}
	if t.sc.spec.OnlyEnd {
		t.sc.discard(t.open)
		t.open, t.buf = nil, nil
		return nil
	}
	t.sc.truncate(t.open, t.sc.cursor.Pos())
	return t.emit()
}

// emit hands the buffer over to a new record.
func (t *tumblingEngine) emit() *Record {
	rec := t.sc.record(t.open, t.buf)
	t.open, t.buf = nil, nil
	return rec
}
