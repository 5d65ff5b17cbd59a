// Run window benchmarks:
//
//	go test -bench=. -benchmem ./pkg/window/...
package window_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sandrolain/gowindow/pkg/seq"
)

func BenchmarkTumbling(b *testing.B) {
	for _, n := range []int{100, 10_000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			spec := tumblingBy(9)
			ctx := context.Background()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := spec.Evaluate(seq.Range(1, n)).Collect(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSlidingOverlap measures the worst case where every item starts
// a window of the given width.
func BenchmarkSlidingOverlap(b *testing.B) {
	for _, width := range []int64{2, 32, 256} {
		b.Run(fmt.Sprintf("width=%d", width), func(b *testing.B) {
			spec := slidingBy(width-1, true)
			ctx := context.Background()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				it := spec.Evaluate(seq.Range(1, 2000))
				for {
					_, ok, err := it.Next(ctx)
					if err != nil {
						b.Fatal(err)
					}
					if !ok {
						break
					}
				}
			}
		})
	}
}
