// Package markdown implements self-hosted markdown extraction: the page is
// fetched over plain HTTP, main content is isolated with go-trafilatura, and
// the result is converted to commonmark. It serves as the backend when no
// Firecrawl key is configured and suits server-rendered pages.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/structura"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// DefaultFetchTimeout is the per-request timeout for page fetches.
const DefaultFetchTimeout = 10 * time.Second

// DefaultRetryDelays returns the backoff delays for transient fetch
// failures: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Extractor implements structura.MarkdownExtractor at compile time.
var _ structura.MarkdownExtractor = (*Extractor)(nil)

// Extractor fetches, isolates and converts page content without any hosted
// scraping service. It does not execute JavaScript.
type Extractor struct {
	client  *http.Client
	conv    *converter.Converter
	timeout time.Duration
	delays  []time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout sets the per-request timeout. Defaults to DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// WithRetryDelays sets the backoff delays between transient retries. Useful
// for testing without waiting for real delays.
func WithRetryDelays(delays []time.Duration) Option {
	return func(e *Extractor) { e.delays = delays }
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		timeout: DefaultFetchTimeout,
		delays:  DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.client = &http.Client{Timeout: e.timeout}
	e.conv = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return e
}

// ExtractMarkdown fetches the page at pageURL and returns its main content
// as markdown, boilerplate removed.
func (e *Extractor) ExtractMarkdown(ctx context.Context, pageURL string) (string, error) {
	if err := validateURL(pageURL); err != nil {
		return "", err
	}

	rawHTML, err := e.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	title, contentHTML, err := extractContent(rawHTML)
	if err != nil {
		return "", structura.Errorf(structura.EFETCHFAILED, "content extraction failed for %s: %s", pageURL, err)
	}

	md, err := e.conv.ConvertString(contentHTML)
	if err != nil {
		return "", structura.Errorf(structura.EFETCHFAILED, "markdown conversion failed for %s: %s", pageURL, err)
	}

	md = strings.TrimSpace(md)
	if md == "" {
		return "", structura.Errorf(structura.EFETCHFAILED, "no content extracted from %s", pageURL)
	}
	if title != "" && !strings.HasPrefix(md, "#") {
		md = fmt.Sprintf("# %s\n\n%s", title, md)
	}
	return md, nil
}

// fetch retrieves the raw HTML with bounded transient retry. Timeouts and
// 5xx responses are retried; 4xx responses and DNS failures are not.
func (e *Extractor) fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	maxAttempts := len(e.delays) + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, retryable, err := e.fetchOnce(ctx, pageURL)
		if err == nil {
			return body, nil
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
		"fetch failed after %d attempts: %s", maxAttempts, structura.ErrorMessage(lastErr))
}

func (e *Extractor) fetchOnce(ctx context.Context, pageURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false, structura.Errorf(structura.EINVALID, "invalid url %q", pageURL)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return "", false, structura.Errorf(structura.EFETCHFAILED, "DNS lookup failed: %s", err)
		}
		return "", true, structura.Errorf(structura.EFETCHFAILED, "fetch failed: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, structura.Errorf(structura.EFETCHFAILED, "HTTP %d for %s", resp.StatusCode, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, structura.Errorf(structura.EFETCHFAILED, "HTTP %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, structura.Errorf(structura.EFETCHFAILED, "reading response: %s", err)
	}
	return string(body), false, nil
}

// extractContent isolates the main content of a page, dropping navigation,
// footers and other boilerplate.
func extractContent(rawHTML string) (title, contentHTML string, err error) {
	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil {
		return "", "", err
	}

	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return "", "", err
		}
	}
	return result.Metadata.Title, contentHTML, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
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
