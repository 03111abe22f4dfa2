package fta

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a failed call so callers can branch without
// inspecting status codes.
type ErrorCategory string

const (
	// CategoryAuth — token acquisition failed or the authority rejected the
	// credentials. Fatal for the in-flight call; the next call re-authenticates.
	CategoryAuth ErrorCategory = "authentication"
	// CategoryForbidden — authenticated but not allowed.
	CategoryForbidden ErrorCategory = "forbidden"
	// CategoryNotFound — the referenced submission or resource does not exist.
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryRateLimited — the authority throttled the call (429).
	CategoryRateLimited ErrorCategory = "rate_limited"
	// CategoryTransient — network failure or 5xx, surfaced only after the
	// retry budget is exhausted.
	CategoryTransient ErrorCategory = "transient"
	// CategoryRejected — any other 4xx; permanent, never retried.
	CategoryRejected ErrorCategory = "rejected"
)

// ErrorDetail is a single provider-reported problem. The provider's error
// payloads are loosely shaped, so every field is optional; this one type
// covers all of them.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// APIError is a typed failure from an FTA call. It preserves the provider's
// original error code, message and detail list for audit, and is tagged with
// the operation that failed.
type APIError struct {
	Operation  string
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    []ErrorDetail
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("fta %s: %s (%s, status %d)", e.Operation, msg, e.Category, e.StatusCode)
	}
	return fmt.Sprintf("fta %s: %s (%s)", e.Operation, msg, e.Category)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable-but-exhausted FTA failure.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryTransient
}

// IsPermanent reports whether err is a permanent rejection by the authority.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryRejected
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryAuth
}

// categoryForStatus maps an HTTP status code to the error taxonomy.
func categoryForStatus(status int) ErrorCategory {
	switch {
	case status == 401:
		return CategoryAuth
	case status == 403:
		return CategoryForbidden
	case status == 404:
		return CategoryNotFound
	case status == 429:
		return CategoryRateLimited
	case status >= 500:
		return CategoryTransient
	default:
		return CategoryRejected
	}
}
