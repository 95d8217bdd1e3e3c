// Package jsonschema validates candidate documents against JSON Schemas
// using gojsonschema.
package jsonschema

import (
	"encoding/json"

	"github.com/fwojciec/structura"
	"github.com/xeipuuv/gojsonschema"
)

// Ensure Validator implements structura.SchemaValidator at compile time.
var _ structura.SchemaValidator = (*Validator)(nil)

// Validator wraps gojsonschema. Validation collects every violation rather
// than stopping at the first, so the repair loop and the caller get full
// diagnostic context.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks candidate against schema.
func (v *Validator) Validate(schema json.RawMessage, candidate any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(candidate),
	)
	if err != nil {
		// The candidate went through json.Unmarshal already, so a failure
		// here means the schema itself did not compile.
		return structura.Errorf(structura.EINTERNAL, "schema did not compile: %s", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]structura.Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, structura.Violation{
			Path:    violationPath(re),
			Rule:    re.Type(),
			Message: re.Description(),
		})
	}
	return &structura.Error{
		Code:       structura.ESCHEMAVIOLATION,
		Message:    "extracted data does not conform to the schema",
		Violations: violations,
	}
}

// violationPath names the offending field. Required-property errors are
// reported by gojsonschema at the parent context, so the property name from
// the error details is more useful than "(root)".
func violationPath(re gojsonschema.ResultError) string {
	path := re.Field()
	if prop, ok := re.Details()["property"].(string); ok && (path == "(root)" || path == "") {
		return prop
	}
	return path
}
