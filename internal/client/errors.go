package client

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorization          = errors.New("not authorized")
	ErrNotFound               = errors.New("resource not found")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrServer                 = errors.New("server error")
	ErrConnection             = errors.New("connection failed")
	// ErrTimeout also matches ErrConnection.
	ErrTimeout = errors.New("request timed out")
)

// APIError is returned for every failed API call.
type APIError struct {
	// Kind is one of the Err* values, or nil for an unclassified status code.
	Kind         error
	Message      string
	StatusCode   int
	ResponseData map[string]any
	RequestID    string
	// RetryAfter is set for rate-limited responses that sent Retry-After.
	RetryAfter time.Duration
	Cause      error
}

func (e *APIError) Error() string {
	parts := []string{e.Message}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("(status: %d)", e.StatusCode))
	}
	if e.RequestID != "" {
		parts = append(parts, fmt.Sprintf("(request_id: %s)", e.RequestID))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("(caused by: %v)", e.Cause))
	}
	return strings.Join(parts, " ")
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func (e *APIError) Is(target error) bool {
	if e.Kind == nil {
		return false
	}
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrTimeout && target == ErrConnection
}

// kindForStatus maps an HTTP status code to an error kind.
func kindForStatus(code int) error {
	switch {
	case code == 400:
		return ErrValidation
	case code == 401:
		return ErrAuthenticationRequired
	case code == 403:
		return ErrAuthorization
	case code == 404:
		return ErrNotFound
	case code == 429:
		return ErrRateLimited
	case code >= 500 && code < 600:
		return ErrServer
	default:
		return nil
	}
}

// errorMessage picks the most specific message from an error body.
func errorMessage(data map[string]any, code int) string {
	if msg, ok := data["message"].(string); ok && msg != "" {
		return msg
	}
	switch v := data["error"].(type) {
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
	case string:
		if v != "" {
			return v
		}
	}
	return fmt.Sprintf("HTTP %d error", code)
}

// AmbiguousIdentifierError is returned when an identifier matches more than
// one resource.
type AmbiguousIdentifierError struct {
	Identifier string
	Matches    []string
}

func (e *AmbiguousIdentifierError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple clusters match '%s':\n", e.Identifier)
	for _, m := range e.Matches {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	b.WriteString("Please provide a more specific identifier.")
	return b.String()
}
