package structura

import (
	"context"
	"net/url"
)

// DefaultSchemaVersion is assumed when a request does not specify one.
const DefaultSchemaVersion = "v1"

// ExtractionRequest fully specifies one extraction. It is immutable for the
// duration of the call and never persisted.
type ExtractionRequest struct {
	URL           string `json:"url"`
	Domain        string `json:"domain"`
	SchemaVersion string `json:"schemaVersion"`
	APIKey        string `json:"apiKey"`
}

// Validate returns an error if the request contains invalid fields.
func (r *ExtractionRequest) Validate() error {
	if r.Domain == "" {
		return Errorf(EINVALID, "domain required")
	}
	if r.URL == "" {
		return Errorf(EINVALID, "url required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return Errorf(EINVALID, "invalid url %q", r.URL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf(EINVALID, "url must be an absolute http(s) URL, got %q", r.URL)
	}
	return nil
}

// ExtractionResult is the success outcome of one extraction. Data always
// conforms to the schema of the blueprint resolved for the request; a
// nonconforming document is reported as an error, never returned here.
type ExtractionResult struct {
	Data map[string]any `json:"data"`

	// Diagnostics. Attempts counts structuring invocations (1 means the
	// first LLM output already validated), Truncated reports whether the
	// page content was cut to fit the prompt budget, and ContentHash
	// fingerprints the extracted markdown.
	Attempts    int    `json:"attempts"`
	Truncated   bool   `json:"truncated"`
	ContentHash string `json:"contentHash"`
}

// ExtractionService runs the extraction pipeline end to end.
type ExtractionService interface {
	// Extract resolves the blueprint for the request's domain, fetches the
	// page as markdown, asks the LLM for a conforming JSON document, and
	// validates it. The returned data is schema-valid or an error is
	// returned; there is no partial success.
	Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)
}
