package fuzz

import (
	"context"
	"testing"
	"time"

	"github.com/sandrolain/gowindow"
	"github.com/sandrolain/gowindow/pkg/seq"
)

var fixtureData = []interface{}{
	map[string]interface{}{"name": "foo", "price": float64(10)},
	map[string]interface{}{"name": "bar", "price": float64(200)},
	float64(3),
	"baz",
	nil,
	[]interface{}{float64(1), float64(2)},
}

func FuzzParseClause(f *testing.F) {
	seeds := []string{
		`{"kind": "tumbling", "var": "w", "start": {"at": "s"}, "end": {"at": "e", "when": "e - s == 1"}}`,
		`{"kind": "sliding", "var": "w", "start": {"item": "x", "previous": "p", "next": "n"}, "end": {}, "only_end": true}`,
		`{"kind": "tumbling", "var": "w", "start": {}, "item_type": "(ns)?"}`,
		`{"kind": "tumbling", "var": "w", "start": {}, "item_schema": {"type": "object"}}`,
		`{"kind": "sliding", "var": "w", "start": {}}`,
		`{}`,
		`{`,
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		def, err := gowindow.ParseClause([]byte(input))
		if err != nil {
			return
		}
		spec, err := gowindow.Compile(def)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, _ = spec.Evaluate(seq.FromSlice(fixtureData)).Collect(ctx)
	})
}
