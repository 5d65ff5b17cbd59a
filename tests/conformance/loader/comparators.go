package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/sandrolain/gowindow/pkg/types"
)

// CompareResults compares the windows of a result with the expected ones.
func CompareResults(result *TestResult, metadata *TestCase) (bool, string) {
	// Handle error expectations
	if code := metadata.ExpectedCode(); code != "" {
		return false, fmt.Sprintf("expected error %s but got %d windows", code, len(result.Actual))
	}

	actual := toGeneric(result.Actual)
	expected := toGeneric(metadata.Result)

	if metadata.Unordered {
		if !deepEqualUnordered(actual, expected) {
			return false, fmt.Sprintf(
				"result mismatch (unordered)\n  Expected: %v\n  Got:      %v",
				expected, actual)
		}
	} else if !deepEqual(actual, expected) {
		return false, fmt.Sprintf(
			"result mismatch\n  Expected: %v\n  Got:      %v",
			expected, actual)
	}

	if metadata.Positions != nil && !reflect.DeepEqual(result.Positions, metadata.Positions) {
		return false, fmt.Sprintf(
			"position mismatch\n  Expected: %v\n  Got:      %v",
			metadata.Positions, result.Positions)
	}
	return true, ""
}

// CompareError checks the error of a result against the expected code.
func CompareError(result *TestResult, metadata *TestCase) (bool, string) {
	code := metadata.ExpectedCode()
	if result.Error == nil {
		return false, fmt.Sprintf("expected error %s, got windows %v", code, result.Actual)
	}
	if result.ErrorCode != code {
		return false, fmt.Sprintf("expected error %s, got %v", code, result.Error)
	}
	if metadata.Error != nil && metadata.Error.Position != 0 {
		var qe *types.Error
		if !errors.As(result.Error, &qe) || qe.Position != metadata.Error.Position {
			return false, fmt.Sprintf("expected error at position %d, got %v", metadata.Error.Position, result.Error)
		}
	}
	return true, ""
}

func toGeneric(windows [][]interface{}) []interface{} {
	out := make([]interface{}, len(windows))
	for i, w := range windows {
		if w == nil {
			w = []interface{}{}
		}
		out[i] = w
	}
	return out
}

// deepEqual performs deep equality with type coercion for numbers
func deepEqual(a, b interface{}) bool {
	// Nil handling
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	// Try standard reflection equality first
	if reflect.DeepEqual(a, b) {
		return true
	}

	// Handle numeric type coercion (positions are integers, JSON numbers floats)
	if aNum, ok := toNumber(a); ok {
		if bNum, ok := toNumber(b); ok {
			return numbersClose(aNum, bNum)
		}
	}

	// Handle array/slice comparison
	aArr, aIsArr := a.([]interface{})
	bArr, bIsArr := b.([]interface{})
	if aIsArr && bIsArr {
		if len(aArr) != len(bArr) {
			return false
		}
		for i := range aArr {
			if !deepEqual(aArr[i], bArr[i]) {
				return false
			}
		}
		return true
	}

	// Handle map/object comparison
	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		if len(aMap) != len(bMap) {
			return false
		}
		for k, v := range aMap {
			bv, ok := bMap[k]
			if !ok || !deepEqual(v, bv) {
				return false
			}
		}
		return true
	}

	return false
}

// deepEqualUnordered is like deepEqual but ignores the order of windows
func deepEqualUnordered(a, b []interface{}) bool {
	if deepEqual(a, b) {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	aCopy := append([]interface{}(nil), a...)
	bCopy := append([]interface{}(nil), b...)
	sortByJSON(aCopy)
	sortByJSON(bCopy)
	return deepEqual(aCopy, bCopy)
}

// toNumber tries to convert value to float64
func toNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// numbersClose checks if two numbers are close (handles float precision)
func numbersClose(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}

	// Check relative tolerance
	const epsilon = 1e-10
	if a == 0 || b == 0 {
		return math.Abs(a-b) < epsilon
	}
	return math.Abs((a-b)/b) < epsilon
}

// sortByJSON sorts slice by its JSON representation
func sortByJSON(s []interface{}) {
	key := func(v interface{}) string {
		b, _ := json.Marshal(v)
		return string(b)
	}
	sort.SliceStable(s, func(i, j int) bool {
		return key(s[i]) < key(s[j])
	})
}
