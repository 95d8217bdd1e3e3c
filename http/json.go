package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fwojciec/structura"
)

// envelope is the wire shape for every response body.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   *errBody `json:"error,omitempty"`
}

type errBody struct {
	Code       string                `json:"code"`
	Message    string                `json:"message"`
	Violations []structura.Violation `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

func successBody(data any) envelope {
	return envelope{Success: true, Data: data}
}

func errorBody(err error) envelope {
	return envelope{Success: false, Error: &errBody{
		Code:       structura.ErrorCode(err),
		Message:    structura.ErrorMessage(err),
		Violations: structura.ErrorViolations(err),
	}}
}

// statusFromError maps application error codes to HTTP status codes.
func statusFromError(err error) int {
	switch structura.ErrorCode(err) {
	case structura.EINVALID:
		return http.StatusBadRequest
	case structura.EUNAUTHENTICATED:
		return http.StatusUnauthorized
	case structura.EFORBIDDEN:
		return http.StatusForbidden
	case structura.ENOTFOUND:
		return http.StatusNotFound
	case structura.ESCHEMAVIOLATION:
		return http.StatusUnprocessableEntity
	case structura.EFETCHFAILED, structura.EUNPARSABLE:
		return http.StatusBadGateway
	case structura.ELLMUNAVAILABLE, structura.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
