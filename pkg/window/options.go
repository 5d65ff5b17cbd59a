package window

import (
	"log/slog"

	"github.com/sandrolain/gowindow/pkg/env"
)

// Options configures an evaluation.
type Options struct {
	// Env is the outer scope the boundary predicates are evaluated in,
	// i.e. the tuple produced by the preceding FLWOR clauses.
	Env *env.Environment
	// Observer receives scan events. Defaults to a no-op observer.
	Observer Observer
	// Debug enables debug logging of window boundaries.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures evaluation behavior.
type Option func(*Options)

func newOptions(opts []Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Observer == nil {
		options.Observer = nopObserver{}
	}
	return options
}

// WithEnvironment sets the outer scope for boundary predicates.
func WithEnvironment(e *env.Environment) Option {
	return func(opts *Options) {
		opts.Env = e
	}
}

// WithObserver attaches an observer, e.g. a metrics collector.
func WithObserver(o Observer) Option {
	return func(opts *Options) {
		opts.Observer = o
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) Option {
	return func(opts *Options) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Boundary identifies the condition a predicate belongs to.
type Boundary string

const (
	BoundaryStart Boundary = "start"
	BoundaryEnd   Boundary = "end"
)

// Observer is notified of scan events. Implementations must be safe for
// concurrent use when shared between evaluations.
type Observer interface {
	// ItemScanned is called once per item pulled from the source.
	ItemScanned(kind Kind)
	// PredicateEvaluated is called after every successful predicate call.
	PredicateEvaluated(kind Kind, boundary Boundary, matched bool)
	// WindowEmitted is called for every window handed to the consumer.
	WindowEmitted(kind Kind, size int)
	// WindowDiscarded is called for every open window dropped at the end of
	// the input because of "only end".
	WindowDiscarded(kind Kind)
}

type nopObserver struct{}

func (nopObserver) ItemScanned(Kind) {}
func (nopObserver) PredicateEvaluated(Kind, Boundary, bool) {}
func (nopObserver) WindowEmitted(Kind, int) {}
func (nopObserver) WindowDiscarded(Kind) {}
