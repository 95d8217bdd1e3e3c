package structura

import "context"

// MarkdownExtractor converts a web page into markdown text.
// Implementations hide the scraping backend (hosted API vs self-hosted
// pipeline) along with its retry policy for transient fetch failures.
type MarkdownExtractor interface {
	// ExtractMarkdown fetches the page at url and returns its content as
	// markdown. The URL must be a syntactically valid absolute HTTP or
	// HTTPS URL; validation happens before any network call.
	// Returns EINVALID for a malformed URL and EFETCHFAILED once the
	// backend's retry budget is exhausted.
	ExtractMarkdown(ctx context.Context, url string) (string, error)
}
