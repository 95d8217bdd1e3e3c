// Package http exposes the extraction service over a JSON REST API.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fwojciec/structura"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent caps in-flight extractions. Each one holds an LLM
// round trip, so the cap protects the upstream quota more than this process.
const DefaultMaxConcurrent = 8

// APIKeyHeader carries the caller's key for protected domains. A key may
// also be sent in the request body; the header wins when both are present.
const APIKeyHeader = "X-API-Key"

// Handler holds the API route handlers.
type Handler struct {
	service structura.ExtractionService
	library structura.BlueprintLibrary
	logger  *slog.Logger
	verbose bool
	sem     *semaphore.Weighted
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithVerbose includes raw internal error detail in responses. Off by
// default so internals never leak to callers.
func WithVerbose(v bool) HandlerOption {
	return func(h *Handler) { h.verbose = v }
}

// WithMaxConcurrent sets the in-flight extraction cap.
func WithMaxConcurrent(n int64) HandlerOption {
	return func(h *Handler) { h.sem = semaphore.NewWeighted(n) }
}

// WithLibrary lets the health endpoint report the loaded open domains.
func WithLibrary(library structura.BlueprintLibrary) HandlerOption {
	return func(h *Handler) { h.library = library }
}

// NewHandler creates a new Handler.
func NewHandler(service structura.ExtractionService, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
		sem:     semaphore.NewWeighted(DefaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type extractRequest struct {
	URL           string `json:"url"`
	Domain        string `json:"domain"`
	SchemaVersion string `json:"schema_version"`
	APIKey        string `json:"api_key"`
}

type extractResponse struct {
	Data        map[string]any `json:"data"`
	Attempts    int            `json:"attempts"`
	Truncated   bool           `json:"truncated"`
	ContentHash string         `json:"content_hash"`
}

// Extract handles POST /extract.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var body extractRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, structura.Errorf(structura.EINVALID, "request body must be JSON: %s", err))
		return
	}

	apiKey := r.Header.Get(APIKeyHeader)
	if apiKey == "" {
		apiKey = body.APIKey
	}

	if !h.sem.TryAcquire(1) {
		h.writeError(w, r, structura.Errorf(structura.EUNAVAILABLE, "too many concurrent extractions, retry shortly"))
		return
	}
	defer h.sem.Release(1)

	result, err := h.service.Extract(r.Context(), structura.ExtractionRequest{
		URL:           body.URL,
		Domain:        body.Domain,
		SchemaVersion: body.SchemaVersion,
		APIKey:        apiKey,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successBody(extractResponse{
		Data:        result.Data,
		Attempts:    result.Attempts,
		Truncated:   result.Truncated,
		ContentHash: result.ContentHash,
	}))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	data := map[string]any{"status": "ok"}
	if h.library != nil {
		data["open_domains"] = h.library.Domains()
	}
	writeJSON(w, http.StatusOK, successBody(data))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := structura.ErrorCode(err)
	h.logger.Error("extract failed",
		"code", code,
		"err", err,
		"request_id", RequestIDFromContext(r.Context()),
	)

	body := errorBody(err)
	if h.verbose && code == structura.EINTERNAL {
		body.Error.Message = err.Error()
	}
	writeJSON(w, statusFromError(err), body)
}
