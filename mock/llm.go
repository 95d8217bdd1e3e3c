package mock

import (
	"context"

	"github.com/fwojciec/structura"
)

var _ structura.Completer = (*Completer)(nil)

// Completer is a mock implementation of structura.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, prompt string) (string, error)
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteFn(ctx, prompt)
}

var _ structura.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of structura.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
