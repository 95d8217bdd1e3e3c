package mock

import (
	"context"

	"github.com/fwojciec/structura"
)

var _ structura.ExtractionService = (*ExtractionService)(nil)

// ExtractionService is a mock implementation of structura.ExtractionService.
type ExtractionService struct {
	ExtractFn func(ctx context.Context, req structura.ExtractionRequest) (*structura.ExtractionResult, error)
}

func (s *ExtractionService) Extract(ctx context.Context, req structura.ExtractionRequest) (*structura.ExtractionResult, error) {
	return s.ExtractFn(ctx, req)
}
