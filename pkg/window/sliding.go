package window

import (
	"context"

	"github.com/sandrolain/gowindow/pkg/types"
)

// slidingEngine anchors a window at every start item and searches each one
// forward for its own end.
//
// The source is still read once: the engine keeps every window that has
// not been emitted yet, in start order, and buffers the items from the
// oldest of them onward. Each pulled item is offered to every open window,
// which costs O(open windows) per item; with heavily overlapping starts
// that degrades to O(n²) overall, the same as re-scanning per start.
//
// A closed window is only emitted once every older window has been
// emitted, so records come out in increasing start order.
type slidingEngine struct {
	sc *scanner

	pending []*openWindow
	// buf holds the items from position base onward.
	buf  []types.Item
	base uint64

	exhausted bool
	lastPos   uint64
}

func (s *slidingEngine) next(ctx context.Context) (*Record, error) {
	for {
		if len(s.pending) > 0 && s.pending[0].closed {
			return s.emitHead(), nil
		}

		if s.exhausted {
			if len(s.pending) == 0 {
				return nil, nil
			}
			head := s.pending[0]
			if s.sc.spec.OnlyEnd {
				s.sc.discard(head)
				s.dropHead()
				continue
			}
			s.sc.truncate(head, s.lastPos)
			continue
		}

		step, ok, err := s.sc.advance(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.exhausted = true
			s.lastPos = s.sc.cursor.Pos()
			continue
		}

		w, err := s.sc.matchStart(ctx, step)
		if err != nil {
			return nil, err
		}
		if w != nil {
			s.pending = append(s.pending, w)
		}
		if len(s.pending) == 0 {
			continue
		}

		if len(s.buf) == 0 {
			s.base = step.Pos
		}
		s.buf = append(s.buf, step.Cur)

		for _, p := range s.pending {
			if p.closed {
				continue
			}
			if err := s.sc.matchEnd(ctx, p, step); err != nil {
				return nil, err
			}
		}
	}
}

// emitHead copies the oldest window's items out of the shared buffer.
func (s *slidingEngine) emitHead() *Record {
	head := s.pending[0]
	from := head.startPos - s.base
	to := head.endPos - s.base + 1
	items := make([]types.Item, to-from)
	copy(items, s.buf[from:to])
	rec := s.sc.record(head, items)
	s.dropHead()
	return rec
}

// dropHead removes the oldest window and releases the items only it needed.
func (s *slidingEngine) dropHead() {
	s.pending[0] = nil
	s.pending = s.pending[1:]

	if len(s.pending) == 0 {
		clear(s.buf)
		s.buf = s.buf[:0]
		return
	}
	n := s.pending[0].startPos - s.base
	clear(s.buf[:n])
	s.buf = s.buf[n:]
	s.base = s.pending[0].startPos
}
