// Package types defines the core value and error types shared by the window
// evaluator and its collaborators.
//
// This package contains type definitions for:
//   - Item: an opaque value produced by the host query engine
//   - Empty: the empty sequence bound to missing previous/next items
//   - ItemType: declared item types in signature notation
//   - Error types: structured errors with W3C codes
package types

import (
	"fmt"
	"math"
)

// Item is an opaque value from the host query language: an atomic value or a
// node. The window evaluator never looks inside it.
type Item = interface{}

// EmptySequence is the type of the empty sequence "()".
type EmptySequence struct{}

// String returns the XQuery spelling of the empty sequence.
func (EmptySequence) String() string {
	return "()"
}

// MarshalJSON implements json.Marshaler for EmptySequence.
// The empty sequence serializes to JSON null instead of {}.
func (EmptySequence) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Empty is bound to look-around variables that have no item, i.e. the
// previous item of the first position and the next item of the last one.
var Empty = EmptySequence{}

// IsEmpty reports whether v denotes the empty sequence.
func IsEmpty(v interface{}) bool {
	switch s := v.(type) {
	case EmptySequence:
		return true
	case []interface{}:
		return len(s) == 0
	}
	return false
}

// SequenceType checks items against a declared item type.
//
// Implementations must be safe for concurrent use: a compiled window clause
// is shared by every evaluation of the query.
type SequenceType interface {
	// Check returns nil when item conforms to the type.
	Check(item Item) error
	// String returns the declared type as written.
	String() string
}

// EffectiveBooleanValue coerces a predicate result to a boolean following
// the XPath effective boolean value rules.
//
// Maps and other composite values behave like nodes and are always true.
// A sequence of more than one item is true only when its first item is a
// node; otherwise FORG0006 is raised.
func EffectiveBooleanValue(v interface{}) (bool, error) {
	switch val := v.(type) {
	case nil, EmptySequence:
		return false, nil
	case bool:
		return val, nil
	case string:
		return val != "", nil
	case float64:
		return val != 0 && !math.IsNaN(val), nil
	case float32:
		return val != 0 && !math.IsNaN(float64(val)), nil
	case int:
		return val != 0, nil
	case int64:
		return val != 0, nil
	case int32:
		return val != 0, nil
	case uint64:
		return val != 0, nil
	case []interface{}:
		switch len(val) {
		case 0:
			return false, nil
		case 1:
			return EffectiveBooleanValue(val[0])
		}
		if isNode(val[0]) {
			return true, nil
		}
		return false, NewError(ErrInvalidBooleanValue,
			fmt.Sprintf("effective boolean value is not defined for a sequence of %d atomic values", len(val)), -1)
	case map[string]interface{}:
		return true, nil
	}
	return false, NewError(ErrInvalidBooleanValue,
		fmt.Sprintf("effective boolean value is not defined for %T", v), -1)
}

func isNode(v interface{}) bool {
	_, ok := v.(map[string]interface{})
	return ok
}
