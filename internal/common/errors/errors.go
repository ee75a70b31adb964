// Package errors provides standardized error handling for the analysis pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRateLimited        ErrorCode = "GENERATION_RATE_LIMITED"
	ErrCodeTokenLimitExceeded ErrorCode = "TOKEN_LIMIT_EXCEEDED"
	ErrCodeSafetyBlocked      ErrorCode = "SAFETY_BLOCKED"
	ErrCodeTransportFailure   ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeGenerationUnknown  ErrorCode = "GENERATION_UNKNOWN"

	ErrCodeResponseTruncated ErrorCode = "RESPONSE_TRUNCATED"
	ErrCodeGraphInvalid      ErrorCode = "GRAPH_INVALID"

	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying transport or parse error, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRateLimitedError wraps a rate-limit error that survived all retry
// attempts. Retryable by the caller, later.
func NewRateLimitedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Model service rate limit exhausted, retry later",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTokenLimitExceededError creates a non-retryable token budget error.
// Retrying would reproduce the same truncation.
func NewTokenLimitExceededError() *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenLimitExceeded,
		Message:   "Output exceeded token limit, try analyzing fewer files",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSafetyBlockedError creates a non-retryable safety filter error.
func NewSafetyBlockedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSafetyBlocked,
		Message:   "Response blocked by safety filters",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportFailureError creates a non-retryable transport error
// (timeout, auth failure, malformed request).
func NewTransportFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   "Model service call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewGenerationUnknownError creates a non-retryable error for an abnormal
// finish signal.
func NewGenerationUnknownError(finishReason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationUnknown,
		Message:   "Generation failed",
		Details:   fmt.Sprintf("finishReason: %s", finishReason),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseTruncatedError wraps the original parse error after a failed
// repair attempt.
func NewResponseTruncatedError(parseErr error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseTruncated,
		Message:   "Response was truncated, try analyzing fewer files at once",
		Details:   fmt.Sprintf("original error: %s", parseErr.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     parseErr,
	}
}

// NewGraphInvalidError creates an error for a parsed document that does
// not conform to the workflow graph shape.
func NewGraphInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGraphInvalid,
		Message:   "Analysis produced an invalid workflow graph",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestTooLargeError creates a boundary validation error.
func NewRequestTooLargeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestTooLarge,
		Message:   "Request exceeds size limits",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard extracts a StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	ok := stderrors.As(err, &stdErr)
	return stdErr, ok
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// HTTPStatus maps an error code to the status the HTTP layer responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves the HTTP status for an arbitrary pipeline error.
func StatusFor(err error) int {
	if stdErr, ok := AsStandard(err); ok {
		return HTTPStatus(stdErr.Code)
	}
	return http.StatusInternalServerError
}
