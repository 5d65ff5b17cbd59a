package schema_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sandrolain/gowindow/pkg/schema"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

const eventSchema = `{
	"type": "object",
	"required": ["id", "value"],
	"properties": {
		"id": {"type": "string"},
		"value": {"type": "number", "minimum": 0}
	}
}`

func TestCheck(t *testing.T) {
	typ := schema.MustCompile(eventSchema)

	tests := []struct {
		name string
		item interface{}
		ok   bool
	}{
		{"valid", map[string]interface{}{"id": "a", "value": 1.0}, true},
		{"missing field", map[string]interface{}{"id": "a"}, false},
		{"negative", map[string]interface{}{"id": "a", "value": -1.0}, false},
		{"not an object", "a", false},
		{"empty sequence", types.Empty, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := typ.Check(tt.item)
			if (err == nil) != tt.ok {
				t.Fatalf("got err=%v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestCompileInvalidSchema(t *testing.T) {
	_, err := schema.Compile(`{"type": 42}`)
	if types.CodeOf(err) != types.ErrSyntax {
		t.Fatalf("expected %s, got %v", types.ErrSyntax, err)
	}
}

func TestWindowItemSchema(t *testing.T) {
	spec := &window.Spec{
		Kind:     window.Tumbling,
		Var:      "w",
		Start:    window.NewCondition(window.True),
		End:      window.NewCondition(window.True),
		ItemType: schema.MustCompile(`{"type": "integer"}`),
	}
	it := spec.Evaluate(seq.Of(1.0, 2.0, 2.5))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, ok, err := it.Next(ctx); !ok || err != nil {
			t.Fatalf("window %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	_, _, err := it.Next(ctx)
	qe, ok := err.(*types.Error)
	if !ok || qe.Code != types.ErrTypeMismatch {
		t.Fatalf("expected %s, got %v", types.ErrTypeMismatch, err)
	}
	if qe.Position != 3 || !strings.Contains(err.Error(), "integer") {
		t.Fatalf("unexpected error %v", err)
	}
}
