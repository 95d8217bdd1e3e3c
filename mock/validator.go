package mock

import (
	"encoding/json"

	"github.com/fwojciec/structura"
)

var _ structura.SchemaValidator = (*SchemaValidator)(nil)

// SchemaValidator is a mock implementation of structura.SchemaValidator.
type SchemaValidator struct {
	ValidateFn func(schema json.RawMessage, candidate any) error
}

func (v *SchemaValidator) Validate(schema json.RawMessage, candidate any) error {
	return v.ValidateFn(schema, candidate)
}
