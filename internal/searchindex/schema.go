package searchindex

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "searchindex.schema.json"

// Schema returns the JSON schema a normalized payload must satisfy.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("embedded schema is invalid: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// SchemaValidate checks the shape of a searchindex.js file (wrapper or bare
// object) against the embedded JSON Schema. Shape violations come back as a
// *ValidationError; an unreadable file is reported as a plain error.
func SchemaValidate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	payload, err := Normalize(data)
	if err != nil {
		return err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return describeJSONError(err)
	}

	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &ValidationError{Violations: schemaViolations(validationErr)}
		}
		return &ValidationError{Violations: []Violation{{
			Path:    "$",
			Message: err.Error(),
			Code:    CodeSchema,
		}}}
	}
	return nil
}

// schemaViolations flattens the jsonschema error tree, keeping the leaves
// since they carry the specific message.
func schemaViolations(validationErr *jsonschema.ValidationError) []Violation {
	if len(validationErr.Causes) > 0 {
		var violations []Violation
		for _, cause := range validationErr.Causes {
			violations = append(violations, schemaViolations(cause)...)
		}
		return violations
	}

	path := "$"
	if len(validationErr.InstanceLocation) > 0 {
		path = "$." + strings.Join(validationErr.InstanceLocation, ".")
	}
	return []Violation{{
		Path:    path,
		Message: validationErr.Error(),
		Code:    CodeSchema,
	}}
}
