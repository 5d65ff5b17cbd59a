package types

import (
	"fmt"
	"math"
	"strings"
)

// TypeCode represents a type code in item type signatures
type TypeCode string

const (
	TypeAny     TypeCode = "x" // any item
	TypeString  TypeCode = "s" // string
	TypeNumber  TypeCode = "n" // number
	TypeInteger TypeCode = "i" // number without fractional part
	TypeBoolean TypeCode = "b" // boolean
	TypeNull    TypeCode = "l" // null
	TypeArray   TypeCode = "a" // array
	TypeObject  TypeCode = "o" // object (map)
)

// ItemType is a declared item type in signature notation.
//
// Examples: "n", "s?", "(ns)", "a<n>", "a<(sb)>".
// A trailing "?" also admits null.
type ItemType struct {
	Type       TypeCode
	SubType    *ItemType  // For arrays like a<n>
	UnionTypes []TypeCode // For union types like (ns) = number OR string
	Optional   bool

	source string
}

// ParseItemType parses an item type signature.
func ParseItemType(sig string) (*ItemType, error) {
	if sig == "" {
		return nil, NewStaticError(ErrSyntax, "empty item type")
	}
	t, consumed, err := parseItemTypeAt(sig, 0)
	if err != nil {
		return nil, err
	}
	if consumed != len(sig) {
		return nil, NewStaticError(ErrSyntax, "unexpected characters after item type %q", sig[:consumed])
	}
	t.source = sig
	return t, nil
}

// MustParseItemType is like ParseItemType but panics on error.
func MustParseItemType(sig string) *ItemType {
	t, err := ParseItemType(sig)
	if err != nil {
		panic(fmt.Sprintf("types: ParseItemType(%q): %v", sig, err))
	}
	return t
}

func validTypeCode(c TypeCode) bool {
	switch c {
	case TypeAny, TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeNull, TypeArray, TypeObject:
		return true
	}
	return false
}

// parseItemTypeAt parses an item type starting at position i.
// Returns the parsed type, number of characters consumed, and error.
func parseItemTypeAt(s string, i int) (*ItemType, int, error) {
	if i >= len(s) {
		return nil, 0, NewStaticError(ErrSyntax, "unexpected end of item type")
	}

	start := i
	t := &ItemType{}

	if s[i] == '(' {
		j := strings.IndexByte(s[i:], ')')
		if j < 0 {
			return nil, 0, NewStaticError(ErrSyntax, "unmatched ( in item type")
		}
		j += i
		for _, char := range s[i+1 : j] {
			code := TypeCode(string(char))
			if !validTypeCode(code) {
				return nil, 0, NewStaticError(ErrSyntax, "unknown type code in union: %s", code)
			}
			t.UnionTypes = append(t.UnionTypes, code)
		}
		if len(t.UnionTypes) == 0 {
			return nil, 0, NewStaticError(ErrSyntax, "empty union in item type")
		}
		t.Type = t.UnionTypes[0]
		i = j + 1
	} else {
		code := TypeCode(s[i : i+1])
		if !validTypeCode(code) {
			return nil, 0, NewStaticError(ErrSyntax, "unknown type code: %s", code)
		}
		t.Type = code
		i++

		if i < len(s) && s[i] == '<' {
			if code != TypeArray {
				return nil, 0, NewStaticError(ErrSyntax, "type %s cannot have subtypes", code)
			}
			depth := 1
			j := i + 1
			for j < len(s) && depth > 0 {
				switch s[j] {
				case '<':
					depth++
				case '>':
					depth--
				}
				j++
			}
			if depth != 0 {
				return nil, 0, NewStaticError(ErrSyntax, "unmatched < in item type")
			}
			sub := s[i+1 : j-1]
			if sub == "" {
				return nil, 0, NewStaticError(ErrSyntax, "empty subtype")
			}
			subType, consumed, err := parseItemTypeAt(sub, 0)
			if err != nil {
				return nil, 0, err
			}
			if consumed != len(sub) {
				return nil, 0, NewStaticError(ErrSyntax, "unexpected characters in subtype %q", sub)
			}
			subType.source = sub
			t.SubType = subType
			i = j
		}
	}

	if i < len(s) && s[i] == '?' {
		t.Optional = true
		i++
	}

	return t, i - start, nil
}

// String returns the signature the type was parsed from.
func (t *ItemType) String() string {
	if t.source != "" {
		return t.source
	}
	var sb strings.Builder
	if len(t.UnionTypes) > 0 {
		sb.WriteByte('(')
		for _, c := range t.UnionTypes {
			sb.WriteString(string(c))
		}
		sb.WriteByte(')')
	} else {
		sb.WriteString(string(t.Type))
		if t.SubType != nil {
			sb.WriteString("<" + t.SubType.String() + ">")
		}
	}
	if t.Optional {
		sb.WriteByte('?')
	}
	return sb.String()
}

// Check validates that an item matches the type.
func (t *ItemType) Check(item Item) error {
	if item == nil {
		if t.Optional || t.Type == TypeNull || t.Type == TypeAny || t.hasUnion(TypeNull) {
			return nil
		}
		return fmt.Errorf("expected %s, got null", t)
	}

	if len(t.UnionTypes) > 0 {
		var lastErr error
		for _, code := range t.UnionTypes {
			single := &ItemType{Type: code}
			if err := single.Check(item); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
		return lastErr
	}

	switch t.Type {
	case TypeAny:
		return nil

	case TypeString:
		if _, ok := item.(string); !ok {
			return fmt.Errorf("expected string, got %T", item)
		}

	case TypeNumber:
		if _, ok := toFloat(item); !ok {
			return fmt.Errorf("expected number, got %T", item)
		}

	case TypeInteger:
		f, ok := toFloat(item)
		if !ok {
			return fmt.Errorf("expected integer, got %T", item)
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return fmt.Errorf("expected integer, got %v", item)
		}

	case TypeBoolean:
		if _, ok := item.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", item)
		}

	case TypeNull:
		return fmt.Errorf("expected null, got %T", item)

	case TypeArray:
		arr, ok := item.([]interface{})
		if !ok {
			return fmt.Errorf("expected array, got %T", item)
		}
		if t.SubType != nil {
			for i, elem := range arr {
				if err := t.SubType.Check(elem); err != nil {
					return fmt.Errorf("array element %d: %w", i, err)
				}
			}
		}

	case TypeObject:
		if _, ok := item.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", item)
		}

	default:
		return fmt.Errorf("unknown type code: %s", t.Type)
	}

	return nil
}

func (t *ItemType) hasUnion(code TypeCode) bool {
	for _, c := range t.UnionTypes {
		if c == code {
			return true
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}
