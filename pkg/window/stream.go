package window

import (
	"context"
	"fmt"
	"io"

	"github.com/sandrolain/gowindow/pkg/seq"
)

// StreamResult holds the output of a single streaming step.
type StreamResult struct {
	// Record is the next window, or nil when Err is set.
	Record *Record
	// Err is non-nil when evaluation failed. It is always the last value
	// sent before the channel is closed.
	Err error
}

// Stream evaluates the iterator in a goroutine and sends its windows on the
// returned channel.
//
// The channel is closed when all windows have been produced, after an error,
// or when the context is cancelled. It is the caller's responsibility to
// drain the channel or cancel the context to avoid goroutine leaks.
func (it *Iterator) Stream(ctx context.Context) <-chan StreamResult {
	ch := make(chan StreamResult, 16)

	go func() {
		defer close(ch)
		for {
			rec, ok, err := it.Next(ctx)
			if err != nil {
				select {
				case ch <- StreamResult{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if !ok {
				return
			}
			select {
			case ch <- StreamResult{Record: rec}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// EvalStream reads items from r (a JSON array or NDJSON) and streams the
// windows of spec over them.
func EvalStream(ctx context.Context, spec *Spec, r io.Reader, opts ...Option) (<-chan StreamResult, error) {
	if spec == nil {
		return nil, fmt.Errorf("invalid window clause")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec.Evaluate(seq.NewJSONSource(r), opts...).Stream(ctx), nil
}
