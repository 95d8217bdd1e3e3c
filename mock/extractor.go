package mock

import (
	"context"

	"github.com/fwojciec/structura"
)

var _ structura.MarkdownExtractor = (*MarkdownExtractor)(nil)

// MarkdownExtractor is a mock implementation of structura.MarkdownExtractor.
type MarkdownExtractor struct {
	ExtractMarkdownFn func(ctx context.Context, url string) (string, error)
}

func (e *MarkdownExtractor) ExtractMarkdown(ctx context.Context, url string) (string, error) {
	return e.ExtractMarkdownFn(ctx, url)
}
