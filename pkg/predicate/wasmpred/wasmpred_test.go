package wasmpred_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/predicate/wasmpred"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

// spanTwo exports when(s i64, e i64) i32 returning e - s == 2.
var spanTwo = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: (i64, i64) -> i32
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7f,
	// function section
	0x03, 0x02, 0x01, 0x00,
	// export "when"
	0x07, 0x08, 0x01, 0x04, 'w', 'h', 'e', 'n', 0x00, 0x00,
	// code: local.get 1, local.get 0, i64.sub, i64.const 2, i64.eq
	0x0a, 0x0c, 0x01, 0x0a, 0x00, 0x20, 0x01, 0x20, 0x00, 0x7d, 0x42, 0x02, 0x51, 0x0b,
}

func load(t *testing.T) *wasmpred.Module {
	t.Helper()
	ctx := context.Background()
	m, err := wasmpred.Load(ctx, spanTwo)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = m.Close(ctx) })
	return m
}

func TestPredicateCall(t *testing.T) {
	pred, err := load(t).Predicate("when", "s", "$e")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tests := []struct {
		s, e interface{}
		want bool
	}{
		{int64(1), int64(3), true},
		{int64(1), int64(2), false},
		{4.0, 6.0, true},
		{false, int64(2), true},
	}
	for _, tt := range tests {
		got, err := pred(ctx, env.FromMap(map[string]interface{}{"s": tt.s, "e": tt.e}))
		if err != nil {
			t.Fatalf("(%v, %v): %v", tt.s, tt.e, err)
		}
		if got != tt.want {
			t.Errorf("(%v, %v): got %v, want %v", tt.s, tt.e, got, tt.want)
		}
	}
}

func TestPredicateRejectsNonIntegral(t *testing.T) {
	pred, err := load(t).Predicate("when", "s", "e")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	// 2^63 is the first float64 above the i64 range
	for _, v := range []interface{}{1.5, "x", types.Empty, 9223372036854775808.0, -9223372036854777856.0, uint64(1 << 63)} {
		_, err := pred(ctx, env.FromMap(map[string]interface{}{"s": int64(1), "e": v}))
		if types.CodeOf(err) != types.ErrTypeMismatch {
			t.Errorf("%v: expected %s, got %v", v, types.ErrTypeMismatch, err)
		}
	}
	if _, err := pred(ctx, env.New()); types.CodeOf(err) != types.ErrMissingBinding {
		t.Errorf("expected %s, got %v", types.ErrMissingBinding, err)
	}
}

func TestCancelledCallLeavesModuleUsable(t *testing.T) {
	pred, err := load(t).Predicate("when", "s", "e")
	if err != nil {
		t.Fatal(err)
	}
	scope := env.FromMap(map[string]interface{}{"s": int64(1), "e": int64(3)})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pred(cancelled, scope); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	for i := 0; i < 5; i++ {
		got, err := pred(context.Background(), scope)
		if err != nil {
			t.Fatalf("call %d after cancellation: %v", i, err)
		}
		if !got {
			t.Fatalf("call %d after cancellation: got false", i)
		}
	}
}

func TestPredicateSignature(t *testing.T) {
	m := load(t)
	if _, err := m.Predicate("missing", "s", "e"); types.CodeOf(err) != types.ErrSyntax {
		t.Errorf("expected %s for missing export, got %v", types.ErrSyntax, err)
	}
	if _, err := m.Predicate("when", "s"); types.CodeOf(err) != types.ErrSyntax {
		t.Errorf("expected %s for wrong arity, got %v", types.ErrSyntax, err)
	}
}

func TestLoadInvalidModule(t *testing.T) {
	if _, err := wasmpred.Load(context.Background(), []byte("not wasm")); err == nil {
		t.Fatal("expected error")
	}
}

func TestTumblingWithWASMEnd(t *testing.T) {
	end, err := load(t).Predicate("when", "s", "e")
	if err != nil {
		t.Fatal(err)
	}
	spec := &window.Spec{
		Kind:  window.Tumbling,
		Var:   "w",
		Start: window.NewCondition(window.True, window.At("s")),
		End:   window.NewCondition(end, window.At("e")),
	}
	recs, err := spec.Evaluate(seq.Range(1, 7)).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got [][]interface{}
	for _, r := range recs {
		got = append(got, r.Items)
	}
	want := [][]interface{}{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}, {7.0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
