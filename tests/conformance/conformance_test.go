package conformance

import (
	"context"
	"testing"

	"github.com/sandrolain/gowindow/tests/conformance/loader"
)

const suiteDir = "testdata"

func TestWindowClauseSuite(t *testing.T) {
	suite, err := loader.LoadSuite(suiteDir)
	if err != nil {
		t.Fatalf("Failed to load suite: %v", err)
	}

	if suite == nil || len(suite.Groups) == 0 {
		t.Fatalf("No test groups loaded from %s", suiteDir)
	}

	t.Logf("Loaded %d test groups with %d total test cases", len(suite.Groups), suite.Total)

	var totalPassed int
	var totalFailed int
	var groupResults []groupStat

	ctx := context.Background()

	for _, group := range suite.Groups {
		t.Run(group.Name, func(t *testing.T) {
			var groupPassed int
			var groupFailed int

			for _, testCase := range group.Cases {
				t.Run(testCase.ID, func(t *testing.T) {
					data, err := loader.GetData(testCase, suite.Datasets)
					if err != nil {
						t.Fatalf("Failed to get test data: %v", err)
					}

					result, err := loader.EvaluateTestCase(ctx, testCase, data)
					if err != nil {
						t.Fatalf("Evaluation error: %v", err)
					}

					var passed bool
					var msg string
					switch {
					case testCase.ExpectedCode() != "":
						passed, msg = loader.CompareError(result, testCase)
					case result.Error != nil:
						msg = "unexpected error: " + result.Error.Error()
					default:
						passed, msg = result.Passed, result.Message
					}

					if passed {
						groupPassed++
						totalPassed++
						return
					}
					groupFailed++
					totalFailed++
					if testCase.Description != "" {
						t.Errorf("%s: %s", testCase.Description, msg)
					} else {
						t.Error(msg)
					}
				})
			}

			groupResults = append(groupResults, groupStat{
				name:   group.Name,
				passed: groupPassed,
				failed: groupFailed,
			})
		})
	}

	t.Logf("\n"+
		"===================== Window Clause Suite =====================\n"+
		"Total Test Cases: %d\n"+
		"Passed: %d\n"+
		"Failed: %d\n"+
		"Groups: %d\n"+
		"===============================================================\n",
		suite.Total, totalPassed, totalFailed, len(suite.Groups),
	)

	if totalFailed > 0 {
		t.Logf("\nFailing groups:")
		for _, gr := range groupResults {
			if gr.failed > 0 {
				t.Logf("  %s: %d/%d failed", gr.name, gr.failed, gr.failed+gr.passed)
			}
		}
	}
}

func TestLoadTestGroupNumbersArrayCases(t *testing.T) {
	group, err := loader.LoadTestGroup(suiteDir+"/groups", "WindowErrors")
	if err != nil {
		t.Fatal(err)
	}
	if len(group.Cases) == 0 {
		t.Fatal("no cases loaded")
	}
	seen := map[string]bool{}
	for _, tc := range group.Cases {
		if seen[tc.ID] {
			t.Fatalf("duplicate case id %s", tc.ID)
		}
		seen[tc.ID] = true
	}
	if !seen["static_00"] || !seen["dynamic_00"] {
		t.Fatalf("unexpected case ids %v", seen)
	}
}

func TestGetDataSingleton(t *testing.T) {
	tc := &loader.TestCase{Data: []byte(`{"a": 1}`)}
	data, err := loader.GetData(tc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 {
		t.Fatalf("expected a singleton sequence, got %v", data)
	}

	missing := "nope"
	if _, err := loader.GetData(&loader.TestCase{Dataset: &missing}, map[string]interface{}{}); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

type groupStat struct {
	name   string
	passed int
	failed int
}
