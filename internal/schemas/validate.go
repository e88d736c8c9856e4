// Package schemas provides JSON Schema validation for catalog documents.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// CatalogSchema is the JSON Schema every catalog document must satisfy.
// It checks shape only; rule semantics are validated by the catalog package.
//
//go:embed catalog.schema.json
var CatalogSchema string

// ValidationError lists every schema violation found in a document
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation at a JSON path
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		_, _ = fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError means the schema itself could not be compiled
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to compile schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Compile parses a schema document once so it can validate many documents.
func Compile(name, schemaContent string) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	return schema, nil
}

// Validate checks document against a compiled schema. A document that is not
// JSON is reported as a single root violation.
func Validate(schema *gojsonschema.Schema, document []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

var catalogSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return Compile("catalog", CatalogSchema)
})

// ValidateCatalog checks a JSON catalog document against CatalogSchema.
func ValidateCatalog(jsonContent []byte) error {
	schema, err := catalogSchema()
	if err != nil {
		return err
	}
	return Validate(schema, jsonContent)
}
