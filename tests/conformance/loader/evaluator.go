package loader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sandrolain/gowindow"
	"github.com/sandrolain/gowindow/pkg/env"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/types"
	"github.com/sandrolain/gowindow/pkg/window"
)

// EvaluateTestCase compiles the clause of a case and evaluates it over data.
// Compile and evaluation errors are reported in the result, not returned.
func EvaluateTestCase(ctx context.Context, testCase *TestCase, data []interface{}) (*TestResult, error) {
	start := time.Now()

	// Apply timeout if specified
	if testCase.Timelimit != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx,
			time.Duration(*testCase.Timelimit)*time.Millisecond)
		defer cancel()
	}

	outer := make([]string, 0, len(testCase.Bindings))
	for name := range testCase.Bindings {
		outer = append(outer, name)
	}
	sort.Strings(outer)

	testResult := &TestResult{Expected: testCase.Result}

	spec, err := gowindow.Compile(testCase.Clause, gowindow.WithOuterVariables(outer...))
	if err != nil {
		testResult.fail(err, "compile error")
		testResult.DurationMs = time.Since(start).Seconds() * 1000
		return testResult, nil
	}

	recs, err := spec.Evaluate(seq.FromSlice(data),
		window.WithEnvironment(env.FromMap(testCase.Bindings)),
	).Collect(ctx)

	testResult.DurationMs = time.Since(start).Seconds() * 1000

	if err != nil {
		testResult.fail(err, "evaluation error")
		return testResult, nil
	}

	testResult.Actual = make([][]interface{}, len(recs))
	testResult.Positions = make([][2]uint64, len(recs))
	for i, rec := range recs {
		items := rec.Items
		if items == nil {
			items = []interface{}{}
		}
		testResult.Actual[i] = items
		testResult.Positions[i] = [2]uint64{rec.StartPos, rec.EndPos}
	}

	passed, msg := CompareResults(testResult, testCase)
	testResult.Passed = passed
	if !passed {
		testResult.Message = msg
	}

	return testResult, nil
}

func (r *TestResult) fail(err error, stage string) {
	r.Passed = false
	r.Error = err
	r.ErrorCode = string(types.CodeOf(err))
	r.Message = fmt.Sprintf("%s: %v", stage, err)
}
