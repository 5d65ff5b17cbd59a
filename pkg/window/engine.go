package window

import (
	"context"
	"log/slog"

	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
)

// engine produces the windows of one evaluation. next returns nil once no
// window is left.
type engine interface {
	next(ctx context.Context) (*Record, error)
}

func newEngine(spec *Spec, src seq.Source, opts Options) engine {
	sc := &scanner{
		spec:   spec,
		cursor: seq.NewCursor(src),
		outer:  opts.Env,
		obs:    opts.Observer,
		logger: opts.Logger,
		debug:  opts.Debug,
	}
	if spec.Kind == Sliding {
		return &slidingEngine{sc: sc}
	}
	return &tumblingEngine{sc: sc}
}

// scanner holds what both engines share: the cursor and the boundary
// predicate plumbing.
type scanner struct {
	spec   *Spec
	cursor *seq.Cursor
	outer  *env.Environment
	obs    Observer
	logger *slog.Logger
	debug  bool
}

// openWindow is a window whose start item has been found.
type openWindow struct {
	startPos  uint64
	startVars map[string]types.Item
	// scope is the outer scope plus the start variables; end predicates are
	// evaluated on top of it.
	scope *env.Environment

	closed    bool
	endPos    uint64
	endVars   map[string]types.Item
	truncated bool
}

// advance pulls the next step, honoring cancellation.
func (s *scanner) advance(ctx context.Context) (seq.Step, bool, error) {
	if err := ctx.Err(); err != nil {
		return seq.Step{}, false, err
	}
	step, ok, err := s.cursor.Advance()
	if err != nil || !ok {
		return step, ok, err
	}
	s.obs.ItemScanned(s.spec.Kind)
	return step, true, nil
}

// matchStart evaluates the start condition at step and, when it holds,
// returns the newly opened window.
func (s *scanner) matchStart(ctx context.Context, step seq.Step) (*openWindow, error) {
	scope, vars := s.spec.Start.bind(s.outer, step)
	ok, err := s.spec.Start.When(ctx, scope)
	if err != nil {
		return nil, err
	}
	s.obs.PredicateEvaluated(s.spec.Kind, BoundaryStart, ok)
	if !ok {
		return nil, nil
	}
	if s.debug {
		s.logger.Debug("window opened", "kind", s.spec.Kind.String(), "var", s.spec.Var, "start", step.Pos)
	}
	return &openWindow{startPos: step.Pos, startVars: vars, scope: scope}, nil
}

// matchEnd evaluates the end condition of w at step and closes w when it
// holds. The clause must have an end condition.
func (s *scanner) matchEnd(ctx context.Context, w *openWindow, step seq.Step) error {
	scope, vars := s.spec.End.bind(w.scope, step)
	ok, err := s.spec.End.When(ctx, scope)
	if err != nil {
		return err
	}
	s.obs.PredicateEvaluated(s.spec.Kind, BoundaryEnd, ok)
	if ok {
		w.closed = true
		w.endPos = step.Pos
		w.endVars = vars
	}
	return nil
}

// truncate closes w at the last scanned position without an end item.
func (s *scanner) truncate(w *openWindow, lastPos uint64) {
	w.closed = true
	w.truncated = true
	w.endPos = lastPos
	w.endVars = map[string]types.Item{}
}

func (s *scanner) record(w *openWindow, items []types.Item) *Record {
	if s.debug {
		s.logger.Debug("window closed", "kind", s.spec.Kind.String(), "var", s.spec.Var,
			"start", w.startPos, "end", w.endPos, "size", len(items), "truncated", w.truncated)
	}
	return &Record{
		Var:      s.spec.Var,
		Items:    items,
		StartPos: w.startPos,
		EndPos:   w.endPos,
		Start:    w.startVars,
		End:      w.endVars,
	}
}

func (s *scanner) discard(w *openWindow) {
	s.obs.WindowDiscarded(s.spec.Kind)
	if s.debug {
		s.logger.Debug("window discarded", "kind", s.spec.Kind.String(), "var", s.spec.Var, "start", w.startPos)
	}
}
