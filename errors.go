package structura

import (
	"errors"
	"fmt"
)

// Application error codes. These map the failure taxonomy of the extraction
// pipeline onto machine-readable codes that outer layers (HTTP, CLI) can
// translate without string matching.
const (
	EINVALID         = "invalid"          // malformed request input
	ENOTFOUND        = "not_found"        // unknown domain/blueprint
	EUNAUTHENTICATED = "unauthenticated"  // missing or unknown API key
	EFORBIDDEN       = "forbidden"        // inactive, expired or unauthorized key
	EFETCHFAILED     = "fetch_failed"     // content extraction exhausted retries
	ELLMUNAVAILABLE  = "llm_unavailable"  // LLM stage unreachable
	EUNPARSABLE      = "unparsable"       // LLM never produced parseable JSON
	ESCHEMAVIOLATION = "schema_violation" // output nonconforming after repair budget
	EUNAVAILABLE     = "unavailable"      // remote store unreachable, no usable cache
	EINTERNAL        = "internal"         // anything unexpected
)

// Error represents an application error with a machine-readable code.
// For ESCHEMAVIOLATION errors, Violations carries the individual schema
// violations found in the candidate document.
type Error struct {
	Code       string
	Message    string
	Violations []Violation
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("structura error [%s]: %s", e.Code, e.Message)
}

// Errorf returns a new Error with the given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode returns the code of an error, EINTERNAL for non-application
// errors, and an empty string for nil.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message of an error, a generic message for
// non-application errors, and an empty string for nil.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorViolations returns the schema violations attached to an error, or nil.
func ErrorViolations(err error) []Violation {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}
