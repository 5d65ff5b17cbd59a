package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/metrics"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/window"
)

func evenPosition(_ context.Context, sc *env.Environment) (bool, error) {
	return sc.MustLookup("e").(int64)%2 == 0, nil
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	spec := &window.Spec{
		Kind:    window.Tumbling,
		Var:     "w",
		Start:   window.NewCondition(window.True),
		End:     window.NewCondition(evenPosition, window.At("e")),
		OnlyEnd: true,
	}
	recs, err := spec.Evaluate(seq.Range(1, 5), window.WithObserver(c)).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(recs))
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"scanned", testutil.ToFloat64(c.ItemsScanned.WithLabelValues("tumbling")), 5},
		{"start matched", testutil.ToFloat64(c.Predicates.WithLabelValues("tumbling", "start", "true")), 3},
		{"end matched", testutil.ToFloat64(c.Predicates.WithLabelValues("tumbling", "end", "true")), 2},
		{"end not matched", testutil.ToFloat64(c.Predicates.WithLabelValues("tumbling", "end", "false")), 3},
		{"emitted", testutil.ToFloat64(c.WindowsEmitted.WithLabelValues("tumbling")), 2},
		{"discarded", testutil.ToFloat64(c.WindowsDropped.WithLabelValues("tumbling")), 1},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s: got %v, want %v", ch.name, ch.got, ch.want)
		}
	}

	if n := testutil.CollectAndCount(c.WindowSize); n != 1 {
		t.Errorf("expected one window size series, got %d", n)
	}
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	metrics.New(reg)
}
