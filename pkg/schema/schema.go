// Package schema declares window item types with JSON Schema.
//
// A Type implements types.SequenceType, so it can be set as the declared
// item type of a window clause:
//
//	t, err := schema.Compile(`{"type": "object", "required": ["id"]}`)
//	spec.ItemType = t
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sandrolain/gowindow/pkg/types"
)

// Type is a compiled JSON Schema. It is safe for concurrent use.
type Type struct {
	schema *gojsonschema.Schema
	source string
}

// Compile compiles a JSON Schema document. An invalid schema is a static
// error (XPST0003).
func Compile(schemaJSON string) (*Type, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, types.NewStaticError(types.ErrSyntax, "invalid json schema").WithCause(err)
	}
	return &Type{schema: s, source: schemaJSON}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(schemaJSON string) *Type {
	t, err := Compile(schemaJSON)
	if err != nil {
		panic(fmt.Sprintf("schema: Compile: %v", err))
	}
	return t
}

// Check validates item against the schema.
func (t *Type) Check(item types.Item) error {
	if _, ok := item.(types.EmptySequence); ok {
		item = nil
	}
	result, err := t.schema.Validate(gojsonschema.NewGoLoader(item))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("item invalid against schema: %s", strings.Join(errs, "; "))
}

// String returns the schema document.
func (t *Type) String() string {
	return t.source
}
