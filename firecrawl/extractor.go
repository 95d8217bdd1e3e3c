// Package firecrawl implements markdown extraction using the hosted
// Firecrawl scrape API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/structura"
)

// DefaultBaseURL is the hosted Firecrawl API endpoint.
const DefaultBaseURL = "https://api.firecrawl.dev"

// DefaultFetchTimeout is the per-request timeout. Scrapes render the page
// upstream, so this is deliberately generous compared to a plain fetch.
const DefaultFetchTimeout = 60 * time.Second

// DefaultRetryDelays returns the backoff delays for transient scrape
// failures: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Extractor implements structura.MarkdownExtractor at compile time.
var _ structura.MarkdownExtractor = (*Extractor)(nil)

// Extractor retrieves pages as markdown through the Firecrawl scrape API.
// Timeouts, 429s and 5xx responses are retried with backoff; other 4xx
// responses and DNS failures fail immediately.
type Extractor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	delays  []time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBaseURL overrides the API endpoint. Useful for testing.
func WithBaseURL(u string) Option {
	return func(e *Extractor) { e.baseURL = strings.TrimSuffix(u, "/") }
}

// WithTimeout sets the per-request timeout. Defaults to DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// WithRetryDelays sets the backoff delays between transient retries. Useful
// for testing without waiting for real delays.
func WithRetryDelays(delays []time.Duration) Option {
	return func(e *Extractor) { e.delays = delays }
}

// NewExtractor creates a new Extractor authenticated with apiKey.
func NewExtractor(apiKey string, opts ...Option) *Extractor {
	e := &Extractor{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: DefaultFetchTimeout,
		delays:  DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.client = &http.Client{Timeout: e.timeout}
	return e
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
}

// ExtractMarkdown fetches the page at pageURL and returns its content as
// markdown.
func (e *Extractor) ExtractMarkdown(ctx context.Context, pageURL string) (string, error) {
	if err := validateURL(pageURL); err != nil {
		return "", err
	}

	var lastErr error
	maxAttempts := len(e.delays) + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		markdown, retryable, err := e.scrape(ctx, pageURL)
		if err == nil {
			return markdown, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.delays[attempt]):
		}
	}

	return "", structura.Errorf(structura.EFETCHFAILED,
		"scrape failed after %d attempts: %s", maxAttempts, structura.ErrorMessage(lastErr))
}

// scrape performs one API round trip. The second return value reports
// whether the failure is worth retrying.
func (e *Extractor) scrape(ctx context.Context, pageURL string) (string, bool, error) {
	body, err := json.Marshal(scrapeRequest{URL: pageURL, Formats: []string{"markdown"}})
	if err != nil {
		return "", false, structura.Errorf(structura.EINTERNAL, "encoding scrape request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return "", false, structura.Errorf(structura.EINTERNAL, "building scrape request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return "", false, structura.Errorf(structura.EFETCHFAILED, "DNS lookup failed: %s", err)
		}
		return "", true, structura.Errorf(structura.EFETCHFAILED, "scrape request failed: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, structura.Errorf(structura.EFETCHFAILED, "firecrawl returned HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, structura.Errorf(structura.EFETCHFAILED, "firecrawl returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, structura.Errorf(structura.EFETCHFAILED, "reading scrape response: %s", err)
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, structura.Errorf(structura.EFETCHFAILED, "unexpected scrape response: %s", err)
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "scrape returned success=false"
		}
		return "", false, structura.Errorf(structura.EFETCHFAILED, "%s", msg)
	}
	if strings.TrimSpace(parsed.Data.Markdown) == "" {
		return "", false, structura.Errorf(structura.EFETCHFAILED, "empty markdown content for %s", pageURL)
	}
	return parsed.Data.Markdown, false, nil
}

// validateURL rejects anything that is not an absolute http(s) URL before
// any network call happens.
func validateURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return structura.Errorf(structura.EINVALID, "invalid url %q", pageURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return structura.Errorf(structura.EINVALID, "url must be an absolute http(s) URL, got %q", pageURL)
	}
	return nil
}

// String identifies the backend in logs.
func (e *Extractor) String() string {
	return fmt.Sprintf("firecrawl(%s)", e.baseURL)
}
