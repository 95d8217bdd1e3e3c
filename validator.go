package structura

import (
	"encoding/json"
	"fmt"
)

// Violation is one specific way a candidate document fails to conform to a
// JSON Schema.
type Violation struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// String returns a single-line rendering suitable for logs and repair prompts.
func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Path, v.Message, v.Rule)
}

// SchemaValidator validates a candidate document against a JSON Schema.
type SchemaValidator interface {
	// Validate returns nil when candidate conforms to schema. Otherwise it
	// returns an ESCHEMAVIOLATION error carrying every violation found,
	// not just the first.
	Validate(schema json.RawMessage, candidate any) error
}
