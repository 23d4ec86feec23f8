// Package apierror classifies failures coming back from the CRM API into a
// small set of stable codes, independent of how a given endpoint phrases them.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Code represents a failure category as the client understands it, not as the
// transport spelled it.
type Code string

const (
	// CodeUnauthorized is an authorization expiry: the session token is no
	// longer valid. Recoverable once via the refresh protocol.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden is an authorization denial: valid session, missing
	// permission. Never recoverable by refresh.
	CodeForbidden   Code = "forbidden"
	CodeNotFound    Code = "not_found"
	CodeValidation  Code = "validation_failed"
	CodeConflict    Code = "conflict"
	CodeRateLimited Code = "rate_limited"
	CodeNetwork     Code = "network_error"
	CodeTimeout     Code = "timeout"
	CodeServer      Code = "server_error"
	CodeUnknown     Code = "unknown"
)

// Error carries the classification code, a human-readable message (server
// supplied when available), the HTTP status if any, and the wrapped cause.
type Error struct {
	Code    Code
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an existing error. If the wrapped error
// already carries a code, that code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Status: existing.Status, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks whether err is an API error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// envelope is the error body shape the API returns: {"error": ..., "message": ...}.
type envelope struct {
	ErrorKind string `json:"error"`
	Message   string `json:"message"`
}

// FromResponse maps an HTTP status and response body to a coded error. The
// server-supplied message field is preferred; fallback is the generic
// fallbackMsg supplied by the caller (a resource-specific English sentence).
func FromResponse(status int, body []byte, fallbackMsg string) error {
	msg := fallbackMsg
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		msg = env.Message
	}
	return &Error{Code: codeForStatus(status), Message: msg, Status: status}
}

func codeForStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return CodeTimeout
	case status >= 400 && status < 500:
		return CodeValidation
	case status >= 500:
		return CodeServer
	default:
		return CodeUnknown
	}
}

// Network wraps a transport-level failure (no HTTP response at all).
func Network(err error) error {
	return &Error{Code: CodeNetwork, Message: "network error", Err: err}
}

// StatusOf returns the HTTP status carried by err, or 0 when err never made
// it to the server.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Retryable reports whether the failure is worth retrying: transport errors,
// 5xx, and 429. Every other 4xx is final, including 408. The status rule
// outranks the code: a 408 classifies as CodeTimeout for display but is
// still a client error on the wire.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		// A bare error has no classification and may be transient.
		return true
	}
	if e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests {
		return false
	}
	switch e.Code {
	case CodeNetwork, CodeTimeout, CodeServer, CodeRateLimited:
		return true
	}
	return e.Status == 0 || e.Status >= 500
}

// Message extracts the user-facing message from err, falling back to the
// supplied default when err carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
