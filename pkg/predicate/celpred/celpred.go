// Package celpred compiles CEL expressions into window boundary predicates.
//
// Every declared boundary variable, and any outer variable the expression
// references, is passed to CEL as a dynamically typed variable. The result
// is coerced to a boolean with the effective boolean value rules, so an
// expression may return a string, a number or a list as well as a bool.
//
// # Example
//
//	c := celpred.New()
//	when, err := c.Compile("e - s == 2", "s", "e")
//	spec.End = window.NewCondition(when, window.At("e"))
//
// Compiled programs are cached by expression and variable set and are safe
// for concurrent use.
package celpred

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"github.com/sandrolain/gowindow/pkg/cache"
	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

// Options configures a Compiler.
type Options struct {
	// CacheSize is the maximum number of compiled programs kept.
	CacheSize int
	// EnvOptions are appended to the CEL environment, e.g. custom functions.
	EnvOptions []cel.EnvOption
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Options)

// WithCacheSize sets the program cache capacity.
func WithCacheSize(n int) Option {
	return func(opts *Options) {
		opts.CacheSize = n
	}
}

// WithEnvOptions adds CEL environment options to every compiled program.
func WithEnvOptions(envOpts ...cel.EnvOption) Option {
	return func(opts *Options) {
		opts.EnvOptions = append(opts.EnvOptions, envOpts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Compiler turns CEL source into window predicates.
type Compiler struct {
	opts     Options
	programs *cache.Cache[cel.Program]
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	options := Options{CacheSize: 512}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Compiler{
		opts:     options,
		programs: cache.New[cel.Program](options.CacheSize),
	}
}

// CacheStats returns the program cache counters.
func (c *Compiler) CacheStats() cache.Stats {
	return c.programs.Stats()
}

// Compile compiles expr with names declared as variables. The returned
// predicate looks every name up in its scope and fails with XPDY0002 if one
// is unbound.
//
// Syntax and type-check failures are reported as XPST0003.
func (c *Compiler) Compile(expr string, names ...string) (window.Predicate, error) {
	vars := normalize(names)
	prg, err := c.programs.GetOrCompile(cacheKey(expr, vars), func() (cel.Program, error) {
		return c.build(expr, vars)
	})
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, scope *env.Environment) (bool, error) {
		activation := make(map[string]interface{}, len(vars))
		for _, name := range vars {
			v, ok := scope.Lookup(name)
			if !ok {
				return false, types.NewError(types.ErrMissingBinding,
					fmt.Sprintf("variable is not bound in %q", expr), -1).WithVariable(name)
			}
			activation[name] = toCEL(v)
		}

		out, _, err := prg.ContextEval(ctx, activation)
		if err != nil {
			return false, fmt.Errorf("evaluate %q: %w", expr, err)
		}
		return fromCEL(out)
	}, nil
}

// MustCompile is like Compile but panics on error.
func (c *Compiler) MustCompile(expr string, names ...string) window.Predicate {
	p, err := c.Compile(expr, names...)
	if err != nil {
		panic(fmt.Sprintf("celpred: Compile(%q): %v", expr, err))
	}
	return p
}

func (c *Compiler) build(expr string, vars []string) (cel.Program, error) {
	envOpts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, name := range vars {
		envOpts = append(envOpts, cel.Variable(name, cel.DynType))
	}
	envOpts = append(envOpts, c.opts.EnvOptions...)

	celEnv, err := cel.NewEnv(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	ast, issues := celEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, types.NewStaticError(types.ErrSyntax, "invalid predicate %q", expr).WithCause(issues.Err())
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return nil, types.NewStaticError(types.ErrSyntax, "invalid predicate %q", expr).WithCause(err)
	}

	c.opts.Logger.Debug("predicate compiled", "expr", expr, "vars", vars)
	return prg, nil
}

func normalize(names []string) []string {
	vars := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimPrefix(n, "$")
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		vars = append(vars, n)
	}
	sort.Strings(vars)
	return vars
}

func cacheKey(expr string, vars []string) string {
	return strings.Join(vars, ",") + "\x00" + expr
}

// toCEL maps item values CEL cannot adapt.
func toCEL(v types.Item) interface{} {
	switch val := v.(type) {
	case types.EmptySequence:
		return nil
	case uint64:
		return int64(val)
	case int:
		return int64(val)
	}
	return v
}

var sliceType = reflect.TypeOf([]interface{}{})

func fromCEL(out ref.Val) (bool, error) {
	switch v := out.(type) {
	case celtypes.Bool:
		return bool(v), nil
	case celtypes.Null:
		return false, nil
	case celtypes.String:
		return types.EffectiveBooleanValue(string(v))
	case celtypes.Int:
		return types.EffectiveBooleanValue(int64(v))
	case celtypes.Uint:
		return types.EffectiveBooleanValue(uint64(v))
	case celtypes.Double:
		return types.EffectiveBooleanValue(float64(v))
	case traits.Mapper:
		return true, nil
	case traits.Lister:
		native, err := v.ConvertToNative(sliceType)
		if err != nil {
			return false, fmt.Errorf("convert CEL list: %w", err)
		}
		return types.EffectiveBooleanValue(native)
	}
	return types.EffectiveBooleanValue(out.Value())
}
