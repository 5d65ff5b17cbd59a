// Package metrics exports window evaluation counters to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sandrolain/gowindow/pkg/window"
)

// Collector implements window.Observer on Prometheus metrics.
// It is safe for concurrent use by many evaluations.
type Collector struct {
	ItemsScanned   *prometheus.CounterVec
	Predicates     *prometheus.CounterVec
	WindowsEmitted *prometheus.CounterVec
	WindowSize     *prometheus.HistogramVec
	WindowsDropped *prometheus.CounterVec
}

// New registers the window metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		ItemsScanned: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowindow_items_scanned_total",
				Help: "Total number of items pulled from window sources",
			},
			[]string{"kind"},
		),
		Predicates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowindow_predicate_evaluations_total",
				Help: "Total number of boundary predicate evaluations",
			},
			[]string{"kind", "boundary", "matched"},
		),
		WindowsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowindow_windows_emitted_total",
				Help: "Total number of windows handed to consumers",
			},
			[]string{"kind"},
		),
		WindowSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowindow_window_size_items",
				Help:    "Number of items per emitted window",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"kind"},
		),
		WindowsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowindow_windows_discarded_total",
				Help: "Total number of open windows discarded at end of input",
			},
			[]string{"kind"},
		),
	}
}

var _ window.Observer = (*Collector)(nil)

// ItemScanned implements window.Observer.
func (c *Collector) ItemScanned(kind window.Kind) {
	c.ItemsScanned.WithLabelValues(kind.String()).Inc()
}

// PredicateEvaluated implements window.Observer.
func (c *Collector) PredicateEvaluated(kind window.Kind, boundary window.Boundary, matched bool) {
	c.Predicates.WithLabelValues(kind.String(), string(boundary), strconv.FormatBool(matched)).Inc()
}

// WindowEmitted implements window.Observer.
func (c *Collector) WindowEmitted(kind window.Kind, size int) {
	c.WindowsEmitted.WithLabelValues(kind.String()).Inc()
	c.WindowSize.WithLabelValues(kind.String()).Observe(float64(size))
}

// WindowDiscarded implements window.Observer.
func (c *Collector) WindowDiscarded(kind window.Kind) {
	c.WindowsDropped.WithLabelValues(kind.String()).Inc()
}
