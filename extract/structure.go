package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/fwojciec/structura"
)

// DefaultParseAttempts is the total number of structuring attempts before
// giving up on unparsable model output (1 initial + 2 repairs).
const DefaultParseAttempts = 3

// Engine turns a prompt into a candidate JSON document. It invokes the LLM,
// parses the response, and on parse failure retries with a corrective
// instruction appended to the original prompt. Schema validation is not its
// job; the only shape check is an early root-type comparison, which counts
// as a parse failure for retry purposes.
type Engine struct {
	completer structura.Completer
	attempts  int
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithParseAttempts sets the total attempt budget. Defaults to
// DefaultParseAttempts; values below 1 are clamped to 1.
func WithParseAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.attempts = n
	}
}

// WithEngineLogger sets the logger. Defaults to slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a new Engine on top of a Completer.
func NewEngine(completer structura.Completer, opts ...EngineOption) *Engine {
	e := &Engine{
		completer: completer,
		attempts:  DefaultParseAttempts,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Structure runs the prompt through the LLM and returns the parsed candidate
// document along with the number of completion calls made. rootType, when
// non-empty, is the schema's declared root type ("object" or "array") used
// for the early shape check.
func (e *Engine) Structure(ctx context.Context, prompt Prompt, rootType string) (any, int, error) {
	p := prompt
	calls := 0
	for attempt := 0; attempt < e.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, calls, err
		}

		text, err := e.completer.Complete(ctx, p.Text)
		calls++
		if err != nil {
			// Availability failures are terminal here; the completer owns
			// its own transient retry.
			return nil, calls, err
		}

		candidate, perr := parseCandidate(text, rootType)
		if perr == nil {
			return candidate, calls, nil
		}

		e.logger.Debug("structuring attempt produced unparsable output",
			"attempt", attempt+1, "error", perr)
		p = RepairParsePrompt(prompt)
	}

	return nil, calls, structura.Errorf(structura.EUNPARSABLE,
		"model did not produce parseable JSON in %d attempts", e.attempts)
}

// parseCandidate strips non-JSON wrapping from raw model output and decodes
// it, rejecting documents whose top-level shape contradicts rootType.
func parseCandidate(raw, rootType string) (any, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, structura.Errorf(structura.EUNPARSABLE, "empty model response")
	}

	var candidate any
	if err := json.Unmarshal([]byte(cleaned), &candidate); err != nil {
		return nil, structura.Errorf(structura.EUNPARSABLE, "invalid JSON: %s", err)
	}

	switch rootType {
	case "object":
		if _, ok := candidate.(map[string]any); !ok {
			return nil, structura.Errorf(structura.EUNPARSABLE, "expected a JSON object at the top level")
		}
	case "array":
		if _, ok := candidate.([]any); !ok {
			return nil, structura.Errorf(structura.EUNPARSABLE, "expected a JSON array at the top level")
		}
	}
	return candidate, nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, from raw model output.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || !strings.ContainsAny(first, "{}[]") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
