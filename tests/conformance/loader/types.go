package loader

import (
	"encoding/json"

	"github.com/sandrolain/gowindow"
)

// TestCase is a single window clause case.
type TestCase struct {
	ID          string              `json:"id"`
	Description string              `json:"description,omitempty"`
	Clause      *gowindow.ClauseDef `json:"clause"`
	Dataset     *string             `json:"dataset"` // null or dataset name
	Data        json.RawMessage     `json:"data,omitempty"`
	// Bindings are the variables of the enclosing scope.
	Bindings map[string]interface{} `json:"bindings"`
	// Result lists the items of each expected window.
	Result [][]interface{} `json:"result,omitempty"`
	// Positions optionally lists the [start, end] position of each window.
	Positions [][2]uint64 `json:"positions,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"` // error code (direct field when no error object)
	Timelimit *int        `json:"timelimit"`
	Unordered bool        `json:"unordered"`
}

// ExpectedCode returns the expected error code, or "" when the case
// expects windows.
func (tc *TestCase) ExpectedCode() string {
	if tc.Error != nil {
		return tc.Error.Code
	}
	return tc.Code
}

// ErrorInfo represents expected error condition
type ErrorInfo struct {
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
	Position int64  `json:"position,omitempty"`
}

// TestGroup represents all test cases in a group directory
type TestGroup struct {
	Name  string
	Path  string
	Cases []*TestCase
}

// TestSuite represents the complete test suite with all groups and datasets
type TestSuite struct {
	Groups   []*TestGroup
	Datasets map[string]interface{}
	Total    int
}

// TestResult represents the result of executing a test case
type TestResult struct {
	Passed     bool
	Expected   interface{}
	Actual     [][]interface{}
	Positions  [][2]uint64
	Error      error
	ErrorCode  string
	Message    string
	DurationMs float64
}
