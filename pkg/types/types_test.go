package types_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/sandrolain/gowindow/pkg/types"
)

func TestParseItemType(t *testing.T) {
	tests := []struct {
		sig     string
		wantErr bool
	}{
		{"n", false},
		{"s?", false},
		{"(ns)", false},
		{"(nl)?", false},
		{"a<n>", false},
		{"a<a<s>>", false},
		{"o", false},
		{"", true},
		{"q", true},
		{"n<s>", true},
		{"a<>", true},
		{"a<n", true},
		{"(nq)", true},
		{"()", true},
		{"ns", true},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			it, err := types.ParseItemType(tt.sig)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.sig)
				}
				if types.CodeOf(err) != types.ErrSyntax {
					t.Fatalf("expected %s, got %v", types.ErrSyntax, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if it.String() != tt.sig {
				t.Errorf("String: got %q, want %q", it.String(), tt.sig)
			}
		})
	}
}

func TestItemTypeCheck(t *testing.T) {
	tests := []struct {
		sig  string
		item interface{}
		ok   bool
	}{
		{"n", 1.5, true},
		{"n", int64(3), true},
		{"n", "1", false},
		{"n", nil, false},
		{"n?", nil, true},
		{"i", 4.0, true},
		{"i", 4.5, false},
		{"i", math.Inf(1), false},
		{"s", "x", true},
		{"b", true, true},
		{"b", 0.0, false},
		{"l", nil, true},
		{"l", 0.0, false},
		{"x", map[string]interface{}{}, true},
		{"(ns)", "x", true},
		{"(ns)", true, false},
		{"(nl)", nil, true},
		{"a", []interface{}{1.0, "x"}, true},
		{"a<n>", []interface{}{1.0, 2.0}, true},
		{"a<n>", []interface{}{1.0, "x"}, false},
		{"a<n>", "x", false},
		{"o", map[string]interface{}{"a": 1.0}, true},
		{"o", []interface{}{}, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.sig, tt.item), func(t *testing.T) {
			err := types.MustParseItemType(tt.sig).Check(tt.item)
			if (err == nil) != tt.ok {
				t.Fatalf("Check(%v) against %s: got err=%v, want ok=%v", tt.item, tt.sig, err, tt.ok)
			}
		})
	}
}

func TestMustParseItemTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	types.MustParseItemType("?")
}

func TestEffectiveBooleanValue(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    bool
		wantErr bool
	}{
		{"nil", nil, false, false},
		{"empty sequence", types.Empty, false, false},
		{"true", true, true, false},
		{"false", false, false, false},
		{"empty string", "", false, false},
		{"string", "a", true, false},
		{"zero", 0.0, false, false},
		{"NaN", math.NaN(), false, false},
		{"number", 2.0, true, false},
		{"int64", int64(1), true, false},
		{"empty slice", []interface{}{}, false, false},
		{"singleton", []interface{}{"x"}, true, false},
		{"node sequence", []interface{}{map[string]interface{}{}, 1.0}, true, false},
		{"atomic sequence", []interface{}{1.0, 2.0}, false, true},
		{"map", map[string]interface{}{}, true, false},
		{"struct", struct{}{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.EffectiveBooleanValue(tt.value)
			if tt.wantErr {
				if types.CodeOf(err) != types.ErrInvalidBooleanValue {
					t.Fatalf("expected %s, got %v", types.ErrInvalidBooleanValue, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("expected number, got string")
	err := types.NewError(types.ErrTypeMismatch, "window item does not match declared type n", 5).
		WithVariable("w").
		WithCause(cause)

	want := "XPTY0004 at position 5: $w: window item does not match declared type n: expected number, got string"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be unwrapped")
	}
	if err.IsStatic() {
		t.Error("type errors are dynamic")
	}

	static := types.NewStaticError(types.ErrDuplicateVariable, "duplicate %s", "name")
	if static.Error() != "XQST0103: duplicate name" || !static.IsStatic() {
		t.Errorf("unexpected static error: %v", static)
	}

	wrapped := fmt.Errorf("compile: %w", static)
	if types.CodeOf(wrapped) != types.ErrDuplicateVariable {
		t.Errorf("CodeOf through wrapping: got %q", types.CodeOf(wrapped))
	}
	if types.CodeOf(errors.New("plain")) != "" {
		t.Error("plain errors have no code")
	}
}

func TestEmptySequenceJSON(t *testing.T) {
	b, err := types.Empty.MarshalJSON()
	if err != nil || string(b) != "null" {
		t.Fatalf("got %s, %v", b, err)
	}
	if !types.IsEmpty(types.Empty) || !types.IsEmpty([]interface{}{}) || types.IsEmpty(nil) {
		t.Fatal("unexpected IsEmpty result")
	}
}
