// Package wasmpred runs window boundary predicates exported by a
// WebAssembly module.
//
// A predicate export takes one i64 parameter per bound variable and returns
// an i32 that is true when non-zero:
//
//	(func (export "when") (param $s i64) (param $e i64) (result i32) ...)
//
// Only integral values can cross the boundary: positions, integral numbers
// and booleans. Any other value raises XPTY0004.
package wasmpred

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

// Options configures a Module.
type Options struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
	// runtime default.
	MemoryLimitPages uint32
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures a Module.
type Option func(*Options)

// WithMemoryLimitPages caps guest memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(opts *Options) {
		opts.MemoryLimitPages = pages
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Module is an instantiated guest module. Calls into the guest are
// serialized, so a Module may back predicates used by many evaluations.
// A cancelled call fails on its own and leaves the module usable.
type Module struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	mod     api.Module
	logger  *slog.Logger
}

// Load compiles and instantiates wasm.
func Load(ctx context.Context, wasm []byte, opts ...Option) (*Module, error) {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	cfg := wazero.NewRuntimeConfig()
	if options.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(options.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, cfg)

	mod, err := r.Instantiate(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiate wasm module: %w", err)
	}
	options.Logger.Debug("wasm module loaded", "exports", len(mod.ExportedFunctionDefinitions()))

	return &Module{runtime: r, mod: mod, logger: options.Logger}, nil
}

// Predicate returns a predicate calling export with the values bound to
// names, in order. The export signature must be (i64 x len(names)) -> i32.
func (m *Module) Predicate(export string, names ...string) (window.Predicate, error) {
	fn := m.mod.ExportedFunction(export)
	if fn == nil {
		return nil, types.NewStaticError(types.ErrSyntax, "wasm module does not export %q", export)
	}
	def := fn.Definition()
	if err := checkSignature(def.ParamTypes(), def.ResultTypes(), len(names)); err != nil {
		return nil, types.NewStaticError(types.ErrSyntax, "wasm export %q: %v", export, err)
	}

	vars := make([]string, len(names))
	for i, n := range names {
		vars[i] = strings.TrimPrefix(n, "$")
	}

	return func(ctx context.Context, scope *env.Environment) (bool, error) {
		params := make([]uint64, len(vars))
		for i, name := range vars {
			v, ok := scope.Lookup(name)
			if !ok {
				return false, types.NewError(types.ErrMissingBinding, "variable is not bound", -1).WithVariable(name)
			}
			n, err := toI64(v)
			if err != nil {
				return false, types.NewError(types.ErrTypeMismatch, "cannot pass value to wasm", -1).
					WithVariable(name).WithCause(err)
			}
			params[i] = api.EncodeI64(n)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// checked under the lock: the wait may outlive the context
		if err := ctx.Err(); err != nil {
			return false, err
		}
		res, err := fn.Call(ctx, params...)
		if err != nil {
			return false, fmt.Errorf("call wasm export %q: %w", export, err)
		}
		return api.DecodeI32(res[0]) != 0, nil
	}, nil
}

// Close releases the runtime and every module instantiated in it.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

func checkSignature(params, results []api.ValueType, arity int) error {
	if len(params) != arity {
		return fmt.Errorf("expected %d parameters, got %d", arity, len(params))
	}
	for i, p := range params {
		if p != api.ValueTypeI64 {
			return fmt.Errorf("parameter %d must be i64, got %s", i, api.ValueTypeName(p))
		}
	}
	if len(results) != 1 || results[0] != api.ValueTypeI32 {
		return fmt.Errorf("expected a single i32 result")
	}
	return nil
}

func toI64(v types.Item) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows i64", n)
		}
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("unsupported value %T", v)
}
