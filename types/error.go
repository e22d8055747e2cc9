package types

import "fmt"

// ErrorCode classifies a failure across the normalization and transport
// layers. Codes align HTTP status, retry eligibility and caller handling.
type ErrorCode string

const (
	// Pre-flight failures raised before any network call.
	ErrValidation         ErrorCode = "VALIDATION"
	ErrCapabilityConflict ErrorCode = "CAPABILITY_CONFLICT"

	// Transport-level transient failures.
	ErrTimeout     ErrorCode = "TIMEOUT"
	ErrConnection  ErrorCode = "CONNECTION"
	ErrRateLimited ErrorCode = "RATE_LIMITED"
	ErrServer      ErrorCode = "SERVER_ERROR"

	// Non-transient HTTP failures, mapped per status code.
	ErrBadRequest    ErrorCode = "BAD_REQUEST"
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrForbidden     ErrorCode = "FORBIDDEN"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrConflict      ErrorCode = "CONFLICT"
	ErrUnprocessable ErrorCode = "UNPROCESSABLE"

	// A 200 response carrying an embedded provider error, or one whose shape
	// could not be interpreted at all.
	ErrAPI ErrorCode = "API_ERROR"

	// A 200 response with an empty body. Surfaced as a typed error rather
	// than a silent nil so callers never dereference an absent response.
	ErrNoResponse ErrorCode = "NO_RESPONSE"
)

// Error is the structured error carried by every failure the core raises.
// Message is always human-readable and sufficient to diagnose cause: the
// offending parameter name for validation errors, status plus a truncated
// request/response trace for HTTP errors.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable reports whether err is a transient *Error worth retrying.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" for foreign
// error types.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
