package structura

import (
	"context"
	"encoding/json"
)

// Visibility describes whether a blueprint requires authorization.
type Visibility string

// Visibility values for Blueprint.
const (
	VisibilityOpen      Visibility = "open"
	VisibilityProtected Visibility = "protected"
)

// Blueprint is a named JSON Schema describing the structured-output shape
// expected for a domain.
type Blueprint struct {
	Domain        string          `json:"domain"`
	SchemaVersion string          `json:"schemaVersion"`
	Visibility    Visibility      `json:"visibility"`
	Schema        json.RawMessage `json:"schema"`
}

// Validate returns an error if the blueprint contains invalid fields.
func (b *Blueprint) Validate() error {
	if b.Domain == "" {
		return Errorf(EINVALID, "blueprint domain required")
	}
	if len(b.Schema) == 0 {
		return Errorf(EINVALID, "blueprint schema required")
	}
	if !json.Valid(b.Schema) {
		return Errorf(EINVALID, "blueprint schema is not valid JSON")
	}
	return nil
}

// RootType returns the declared root type of the blueprint's schema
// ("object", "array", ...) or an empty string when the schema does not
// declare one.
func (b *Blueprint) RootType() string {
	var root struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b.Schema, &root); err != nil {
		return ""
	}
	return root.Type
}

// BlueprintService resolves a domain to its blueprint.
type BlueprintService interface {
	// ResolveBlueprint resolves the blueprint for a domain. Open blueprints
	// never require an API key. Protected blueprints require apiKey to be
	// verified and authorized for the domain before any document is returned.
	// Returns ENOTFOUND if no blueprint exists for the domain,
	// EUNAUTHENTICATED/EFORBIDDEN on failed authorization, and EUNAVAILABLE
	// when the remote store cannot be reached and no cached entry is usable.
	ResolveBlueprint(ctx context.Context, domain, schemaVersion, apiKey string) (*Blueprint, error)
}

// BlueprintLibrary holds the open blueprints loaded at process start.
type BlueprintLibrary interface {
	// OpenBlueprint returns the open blueprint registered for a domain.
	OpenBlueprint(domain string) (*Blueprint, bool)

	// Domains lists the registered open-blueprint domains.
	Domains() []string
}

// BlueprintDocument is the raw document held by the remote store for a
// protected domain. Schema is a JSON-encoded string that must be parsed
// before use; a malformed value is broken upstream data, not a missing
// blueprint.
type BlueprintDocument struct {
	Domain string `json:"domain"`
	Schema string `json:"schema"`
}

// BlueprintStore reads protected blueprint documents from the remote store.
type BlueprintStore interface {
	// GetBlueprintDocument retrieves the document stored for a domain.
	// Returns ENOTFOUND if no document exists and EUNAVAILABLE when the
	// store cannot be reached.
	GetBlueprintDocument(ctx context.Context, domain string) (*BlueprintDocument, error)
}
