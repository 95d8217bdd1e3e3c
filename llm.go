package structura

import "context"

// Completer is a chat-style LLM completion call. Implementations own the
// system instruction, model selection, and transient retry; the prompt is
// passed through verbatim.
type Completer interface {
	// Complete sends a prompt and returns the raw model response text.
	// Returns ELLMUNAVAILABLE when the backend is unreachable after its
	// retry budget.
	Complete(ctx context.Context, prompt string) (string, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
