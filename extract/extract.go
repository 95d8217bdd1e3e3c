// Package extract implements the extraction orchestration pipeline: blueprint
// resolution, access control, content fetching, LLM structuring with bounded
// repair, and schema validation of the final document.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/structura"
)

// DefaultRepairAttempts is the number of extra structuring rounds granted to
// correct schema violations after the first candidate fails validation.
const DefaultRepairAttempts = 2

// DefaultFetchTimeout caps the content-extraction stage.
const DefaultFetchTimeout = 60 * time.Second

// DefaultLLMTimeout caps one structuring invocation, including its internal
// parse-repair calls.
const DefaultLLMTimeout = 120 * time.Second

// Ensure Service implements structura.ExtractionService at compile time.
var _ structura.ExtractionService = (*Service)(nil)

// Service composes the pipeline stages into the extract operation. Each
// request runs as one independent unit of work; the only shared state lives
// behind the injected blueprint service (its caches).
type Service struct {
	Blueprints structura.BlueprintService
	Extractor  structura.MarkdownExtractor
	Engine     *Engine
	Validator  structura.SchemaValidator

	// Tokens, when set, is used to log the prompt's token footprint.
	Tokens structura.TokenCounter

	Logger *slog.Logger

	// MaxContentBytes bounds embedded page content.
	// Defaults to DefaultMaxContentBytes.
	MaxContentBytes int

	// RepairAttempts is the validation-repair budget, separate from the
	// engine's parse-repair budget. Zero means DefaultRepairAttempts; set
	// a negative value to disable repair entirely.
	RepairAttempts int

	// Per-stage timeouts.
	FetchTimeout time.Duration
	LLMTimeout   time.Duration
}

// Extract runs the pipeline for one request.
func (s *Service) Extract(ctx context.Context, req structura.ExtractionRequest) (*structura.ExtractionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.SchemaVersion == "" {
		req.SchemaVersion = structura.DefaultSchemaVersion
	}
	logger := s.logger().With("domain", req.Domain, "url", req.URL)

	bp, err := s.Blueprints.ResolveBlueprint(ctx, req.Domain, req.SchemaVersion, req.APIKey)
	if err != nil {
		return nil, err
	}

	markdown, err := s.fetchMarkdown(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	contentHash := fmt.Sprintf("%016x", xxhash.Sum64String(markdown))

	prompt := BuildPrompt(bp, markdown, s.MaxContentBytes)
	if prompt.Truncated {
		logger.Warn("page content truncated for prompt", "limit", s.maxContent())
	}
	if s.Tokens != nil {
		if n, terr := s.Tokens.CountTokens(ctx, prompt.Text); terr == nil {
			logger.Debug("prompt built", "tokens", n)
		}
	}

	return s.structureAndValidate(ctx, bp, prompt, contentHash)
}

// structureAndValidate runs the bounded structuring/validation loop. A
// candidate that validates on the first round means exactly one engine
// invocation; each repair round re-invokes the engine with the violations
// found appended to the original prompt.
func (s *Service) structureAndValidate(ctx context.Context, bp *structura.Blueprint, prompt Prompt, contentHash string) (*structura.ExtractionResult, error) {
	rootType := bp.RootType()
	repairs := s.repairs()
	p := prompt
	invocations := 0

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, _, err := s.structure(ctx, p, rootType)
		invocations++
		if err != nil {
			return nil, err
		}

		verr := s.Validator.Validate(bp.Schema, candidate)
		if verr == nil {
			data, ok := candidate.(map[string]any)
			if !ok {
				return nil, structura.Errorf(structura.EINTERNAL,
					"validated candidate is not a JSON object")
			}
			return &structura.ExtractionResult{
				Data:        data,
				Attempts:    invocations,
				Truncated:   prompt.Truncated,
				ContentHash: contentHash,
			}, nil
		}
		if structura.ErrorCode(verr) != structura.ESCHEMAVIOLATION {
			return nil, verr
		}

		violations := structura.ErrorViolations(verr)
		if round >= repairs {
			return nil, s.violationFailure(violations, prompt.Truncated, invocations)
		}

		s.logger().Debug("candidate failed validation, repairing",
			"round", round+1, "violations", len(violations))
		p = RepairViolationsPrompt(prompt, violations)
	}
}

// fetchMarkdown runs the content-extraction stage under its timeout and
// rejects blank pages before any LLM spend. Expiry of the stage deadline is
// a fetch failure like any other; only caller cancellation passes through.
func (s *Service) fetchMarkdown(ctx context.Context, url string) (string, error) {
	timeout := s.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	markdown, err := s.Extractor.ExtractMarkdown(stageCtx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", structura.Errorf(structura.EFETCHFAILED,
				"content extraction timed out after %s", timeout)
		}
		return "", err
	}
	if strings.TrimSpace(markdown) == "" {
		return "", structura.Errorf(structura.EFETCHFAILED, "no content extracted from URL")
	}
	return markdown, nil
}

// structure runs one engine invocation under the LLM stage timeout. Expiry
// of the stage deadline means the LLM stage was unavailable; only caller
// cancellation passes through.
func (s *Service) structure(ctx context.Context, p Prompt, rootType string) (any, int, error) {
	timeout := s.LLMTimeout
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidate, attempts, err := s.Engine.Structure(stageCtx, p, rootType)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, attempts, structura.Errorf(structura.ELLMUNAVAILABLE,
			"structuring timed out after %s", timeout)
	}
	return candidate, attempts, err
}

// violationFailure builds the terminal schema-violation error. Truncation is
// surfaced here because missing content is a plausible cause of missing
// fields.
func (s *Service) violationFailure(violations []structura.Violation, truncated bool, invocations int) error {
	msg := fmt.Sprintf("extracted data does not conform to the schema after %d attempts", invocations)
	if truncated {
		msg += " (page content was truncated to fit the prompt budget)"
	}
	return &structura.Error{
		Code:       structura.ESCHEMAVIOLATION,
		Message:    msg,
		Violations: violations,
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) maxContent() int {
	if s.MaxContentBytes > 0 {
		return s.MaxContentBytes
	}
	return DefaultMaxContentBytes
}

func (s *Service) repairs() int {
	switch {
	case s.RepairAttempts < 0:
		return 0
	case s.RepairAttempts == 0:
		return DefaultRepairAttempts
	}
	return s.RepairAttempts
}
