package seq_test

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
)

// countingSource records how many items were pulled.
type countingSource struct {
	src    seq.Source
	pulled int
}

func (c *countingSource) Next() (types.Item, bool, error) {
	item, ok, err := c.src.Next()
	if ok {
		c.pulled++
	}
	return item, ok, err
}

func TestCursorLookaround(t *testing.T) {
	c := seq.NewCursor(seq.Of("a", "b", "c"))

	want := []seq.Step{
		{Cur: "a", Next: "b", HasNext: true, Pos: 1},
		{Prev: "a", HasPrev: true, Cur: "b", Next: "c", HasNext: true, Pos: 2},
		{Prev: "b", HasPrev: true, Cur: "c", Pos: 3},
	}
	for i, w := range want {
		got, ok, err := c.Advance()
		if err != nil || !ok {
			t.Fatalf("step %d: ok=%v err=%v", i, ok, err)
		}
		if !reflect.DeepEqual(got, w) {
			t.Errorf("step %d: got %+v, want %+v", i, got, w)
		}
	}
	if _, ok, err := c.Advance(); ok || err != nil {
		t.Fatalf("expected exhaustion, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := c.Advance(); ok {
		t.Fatal("exhausted cursor must stay exhausted")
	}
}

func TestCursorBoundaryEmptiness(t *testing.T) {
	c := seq.NewCursor(seq.Of(1.0))
	step, ok, err := c.Advance()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !types.IsEmpty(step.PrevOrEmpty()) {
		t.Errorf("previous of first item: got %v, want ()", step.PrevOrEmpty())
	}
	if !types.IsEmpty(step.NextOrEmpty()) {
		t.Errorf("next of last item: got %v, want ()", step.NextOrEmpty())
	}
}

func TestCursorPullsOneItemPerAdvance(t *testing.T) {
	src := &countingSource{src: seq.Range(1, 100)}
	c := seq.NewCursor(src)

	if _, _, err := c.Advance(); err != nil {
		t.Fatal(err)
	}
	if src.pulled != 2 {
		t.Fatalf("priming should pull 2 items, pulled %d", src.pulled)
	}
	for i := 0; i < 5; i++ {
		if _, _, err := c.Advance(); err != nil {
			t.Fatal(err)
		}
	}
	if src.pulled != 7 {
		t.Fatalf("expected 7 pulled items, got %d", src.pulled)
	}
	if c.Pos() != 6 {
		t.Fatalf("expected position 6, got %d", c.Pos())
	}
}

func TestCursorEmptySource(t *testing.T) {
	c := seq.NewCursor(seq.Of())
	if _, ok, err := c.Advance(); ok || err != nil {
		t.Fatalf("expected no steps, got ok=%v err=%v", ok, err)
	}
}

func TestCursorSourceErrorSticks(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	c := seq.NewCursor(seq.FromFunc(func() (types.Item, bool, error) {
		n++
		if n > 2 {
			return nil, false, boom
		}
		return n, true, nil
	}))

	if _, ok, err := c.Advance(); !ok || err != nil {
		t.Fatalf("first step: ok=%v err=%v", ok, err)
	}
	if _, _, err := c.Advance(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, _, err := c.Advance(); !errors.Is(err, boom) {
		t.Fatalf("error must stick, got %v", err)
	}
	if !errors.Is(c.Err(), boom) {
		t.Fatalf("Err: got %v", c.Err())
	}
}

func TestJSONSource(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []types.Item
	}{
		{"array", `[1, "two", {"n": 3}]`, []types.Item{1.0, "two", map[string]interface{}{"n": 3.0}}},
		{"ndjson", "1\n2\n\"x\"\n", []types.Item{1.0, 2.0, "x"}},
		{"leading whitespace array", "  \n [true, null]", []types.Item{true, nil}},
		{"empty array", `[]`, nil},
		{"empty input", ``, nil},
		{"whitespace only", "  \n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := seq.Collect(seq.NewJSONSource(strings.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJSONSourceMalformed(t *testing.T) {
	for _, input := range []string{`[1, 2`, `1 {`, `[1,,2]`} {
		_, err := seq.Collect(seq.NewJSONSource(strings.NewReader(input)))
		if err == nil {
			t.Errorf("%q: expected decode error", input)
		}
	}
}

func TestFromSeq(t *testing.T) {
	src, stop := seq.FromSeq(func(yield func(types.Item) bool) {
		for _, v := range []string{"x", "y"} {
			if !yield(v) {
				return
			}
		}
	})
	defer stop()

	got, err := seq.Collect(src)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []types.Item{"x", "y"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRange(t *testing.T) {
	got, _ := seq.Collect(seq.Range(1, 3))
	if !reflect.DeepEqual(got, []types.Item{1.0, 2.0, 3.0}) {
		t.Fatalf("got %v", got)
	}
}
