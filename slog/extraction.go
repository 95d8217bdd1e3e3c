// Package slog provides logging decorators for the service interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/structura"
)

// Ensure LoggingExtractionService implements structura.ExtractionService.
var _ structura.ExtractionService = (*LoggingExtractionService)(nil)

// LoggingExtractionService wraps an ExtractionService with structured
// request logging.
type LoggingExtractionService struct {
	next   structura.ExtractionService
	logger *slog.Logger
}

// NewLoggingExtractionService creates a new LoggingExtractionService.
func NewLoggingExtractionService(next structura.ExtractionService, logger *slog.Logger) *LoggingExtractionService {
	return &LoggingExtractionService{next: next, logger: logger}
}

// Extract delegates to the wrapped service and logs the outcome with timing.
func (s *LoggingExtractionService) Extract(ctx context.Context, req structura.ExtractionRequest) (*structura.ExtractionResult, error) {
	begin := time.Now()
	result, err := s.next.Extract(ctx, req)
	duration := time.Since(begin)

	if err != nil {
		s.logger.Error("extract",
			"url", req.URL,
			"domain", req.Domain,
			"schema_version", req.SchemaVersion,
			"code", structura.ErrorCode(err),
			"err", structura.ErrorMessage(err),
			"duration", duration,
		)
		return nil, err
	}

	s.logger.Info("extract",
		"url", req.URL,
		"domain", req.Domain,
		"schema_version", req.SchemaVersion,
		"attempts", result.Attempts,
		"truncated", result.Truncated,
		"content_hash", result.ContentHash,
		"duration", duration,
	)
	return result, nil
}
