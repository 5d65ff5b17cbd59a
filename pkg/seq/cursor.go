package seq

import "github.com/sandrolain/gowindow/pkg/types"

// Step is the cursor's view of one source item.
type Step struct {
	// Prev is the preceding item; valid only when HasPrev is true.
	Prev types.Item
	// Cur is the item at Pos.
	Cur types.Item
	// Next is the following item; valid only when HasNext is true.
	Next types.Item
	// Pos is the 1-based ordinal of Cur within the whole source.
	Pos uint64

	HasPrev bool
	HasNext bool
}

// PrevOrEmpty returns Prev, or types.Empty at the first position.
func (s Step) PrevOrEmpty() types.Item {
	if !s.HasPrev {
		return types.Empty
	}
	return s.Prev
}

// NextOrEmpty returns Next, or types.Empty at the last position.
func (s Step) NextOrEmpty() types.Item {
	if !s.HasNext {
		return types.Empty
	}
	return s.Next
}

// Cursor walks a Source exposing previous, current and next items.
//
// It buffers the current item and one pulled-ahead item, so look-around
// never requires rewinding the source. The first Advance pulls two items;
// every later call pulls exactly one.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	src Source

	cur     types.Item
	hasCur  bool
	next    types.Item
	hasNext bool

	pos    uint64
	primed bool
	done   bool
	err    error
}

// NewCursor creates a cursor over src.
func NewCursor(src Source) *Cursor {
	return &Cursor{src: src}
}

// Advance moves to the next item. It returns ok=false once the source is
// exhausted. Errors from the source are returned once and then stick.
func (c *Cursor) Advance() (Step, bool, error) {
	if c.err != nil {
		return Step{}, false, c.err
	}
	if c.done {
		return Step{}, false, nil
	}

	if !c.primed {
		c.primed = true
		if err := c.pull(); err != nil {
			return Step{}, false, err
		}
	}

	if !c.hasNext {
		c.done = true
		c.hasCur = false
		c.cur = nil
		return Step{}, false, nil
	}

	step := Step{
		Prev:    c.cur,
		HasPrev: c.hasCur,
		Cur:     c.next,
		Pos:     c.pos + 1,
	}
	c.cur, c.hasCur = c.next, true
	c.pos++

	if err := c.pull(); err != nil {
		return Step{}, false, err
	}
	step.Next, step.HasNext = c.next, c.hasNext
	return step, true, nil
}

// Pos returns the position of the last item returned by Advance, or 0.
func (c *Cursor) Pos() uint64 {
	return c.pos
}

// Err returns the error that stopped the cursor, if any.
func (c *Cursor) Err() error {
	return c.err
}

// pull reads one item into the look-ahead slot.
func (c *Cursor) pull() error {
	item, ok, err := c.src.Next()
	if err != nil {
		c.err = err
		c.hasNext = false
		c.next = nil
		return err
	}
	c.next, c.hasNext = item, ok
	if !ok {
		c.next = nil
	}
	return nil
}
