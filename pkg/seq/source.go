// Package seq provides forward-only item sources and the look-around cursor
// the window engines scan them with.
//
// A Source is consumed at most once. The Cursor wraps it and exposes, for
// every item, its 1-based position together with the previous and next
// items, while holding no more than two items in memory.
package seq

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sandrolain/gowindow/pkg/types"
)

// Source is a pull iterator over items.
type Source interface {
	// Next returns the next item. ok is false once the source is exhausted;
	// a non-nil error aborts the sequence.
	Next() (item types.Item, ok bool, err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (types.Item, bool, error)

// Next calls f.
func (f SourceFunc) Next() (types.Item, bool, error) {
	return f()
}

// sliceSource iterates over an in-memory slice.
type sliceSource struct {
	items []types.Item
	pos   int
}

// FromSlice returns a source over items. The slice is not copied and must
// not be modified while the source is in use.
func FromSlice(items []types.Item) Source {
	return &sliceSource{items: items}
}

// Of returns a source over the given items.
func Of(items ...types.Item) Source {
	return FromSlice(items)
}

// Range returns a source over the float64 values from..to inclusive, the
// way JSON numbers reach the engine.
func Range(from, to int) Source {
	n := from
	return SourceFunc(func() (types.Item, bool, error) {
		if n > to {
			return nil, false, nil
		}
		v := float64(n)
		n++
		return v, true, nil
	})
}

func (s *sliceSource) Next() (types.Item, bool, error) {
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}

// FromFunc returns a source that pulls from next until it reports false.
func FromFunc(next func() (types.Item, bool, error)) Source {
	return SourceFunc(next)
}

// FromSeq adapts a range-over-func sequence. The sequence is driven through
// iter.Pull; call the returned stop function to release it early.
func FromSeq(s iter.Seq[types.Item]) (Source, func()) {
	next, stop := iter.Pull(s)
	return SourceFunc(func() (types.Item, bool, error) {
		item, ok := next()
		return item, ok, nil
	}), stop
}

// Collect drains src into a slice.
func Collect(src Source) ([]types.Item, error) {
	var out []types.Item
	for {
		item, ok, err := src.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}

// JSONSource decodes items lazily from a JSON stream.
//
// A stream starting with '[' is read as a single top-level array whose
// elements are the items. Anything else is read as a sequence of JSON
// values (NDJSON / JSON-seq). Numbers decode as float64.
type JSONSource struct {
	r       *bufio.Reader
	dec     *json.Decoder
	inArray bool
	done    bool
}

// NewJSONSource creates a source reading from r.
func NewJSONSource(r io.Reader) *JSONSource {
	return &JSONSource{r: bufio.NewReader(r)}
}

// Next decodes the next item.
func (s *JSONSource) Next() (types.Item, bool, error) {
	if s.done {
		return nil, false, nil
	}
	if s.dec == nil {
		if err := s.open(); err != nil {
			return s.fail(err)
		}
		if s.done {
			return nil, false, nil
		}
	}

	if s.inArray && !s.dec.More() {
		// consume the closing bracket
		if _, err := s.dec.Token(); err != nil {
			return s.fail(err)
		}
		s.done = true
		return nil, false, nil
	}

	var item interface{}
	if err := s.dec.Decode(&item); err != nil {
		if errors.Is(err, io.EOF) && !s.inArray {
			s.done = true
			return nil, false, nil
		}
		return s.fail(err)
	}
	return item, true, nil
}

// open skips leading whitespace and peeks at the first byte to choose
// between array and value-sequence mode.
func (s *JSONSource) open() error {
	for {
		b, err := s.r.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				return nil
			}
			return err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = s.r.ReadByte()
			continue
		}
		s.dec = json.NewDecoder(s.r)
		if b[0] == '[' {
			if _, err := s.dec.Token(); err != nil {
				return err
			}
			s.inArray = true
		}
		return nil
	}
}

func (s *JSONSource) fail(err error) (types.Item, bool, error) {
	s.done = true
	return nil, false, fmt.Errorf("decode item: %w", err)
}
