// Package gemini implements the LLM completion stage using Google Gemini.
package gemini

import (
	"context"
	"time"

	"github.com/fwojciec/structura"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// DefaultRetryDelays returns the backoff delays for transient completion
// failures: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Completer implements structura.Completer at compile time.
var _ structura.Completer = (*Completer)(nil)

// Completer implements structura.Completer using Google Gemini. Requests
// pass through a client-side token bucket so concurrent extractions cannot
// stampede the API, and transient failures are retried with backoff.
type Completer struct {
	client  *genai.Client
	limiter *rate.Limiter
	delays  []time.Duration
}

// Option configures a Completer.
type Option func(*Completer)

// WithRequestsPerSecond sets the client-side rate limit with a burst of 1.
// Defaults to 2 rps.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Completer) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetryDelays sets the backoff delays between transient retries. Useful
// for testing without waiting for real delays.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Completer) { c.delays = delays }
}

// NewCompleter creates a new Completer.
func NewCompleter(client *genai.Client, opts ...Option) *Completer {
	c := &Completer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		delays:  DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the prompt and returns the raw model response text.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", structura.Errorf(structura.EINVALID, "prompt required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	config := BuildConfig()
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
	}}

	var lastErr error
	maxAttempts := len(c.delays) + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := c.client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			if result == nil {
				return "", structura.Errorf(structura.EINTERNAL, "gemini returned nil result")
			}
			return result.Text(), nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.delays[attempt]):
		}
	}

	return "", structura.Errorf(structura.ELLMUNAVAILABLE,
		"gemini unreachable after %d attempts: %s", maxAttempts, lastErr)
}

// BuildConfig returns the GenerateContentConfig for extraction calls. The
// model is pinned to JSON output and a low temperature so responses stay
// close to the page content.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.3)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a data extraction engine that extracts structured data from unstructured content. Always return valid JSON only, with no additional text or formatting.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}
