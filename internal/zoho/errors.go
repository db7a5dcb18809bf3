package zoho

import (
	"errors"
	"fmt"
)

// Common Zoho Books API errors
var (
	// ErrRequestFailed is returned for a non-success HTTP status that is not retried.
	ErrRequestFailed = errors.New("request failed")

	// ErrRetriesExhausted is returned when a throttled or unavailable response
	// persists past the retry budget.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnauthorized is returned for HTTP 401, usually an expired or revoked refresh token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrAPI is returned when Zoho answers 2xx with a non-zero "code" in the envelope.
	ErrAPI = errors.New("zoho api error")

	// ErrMissingCredentials is returned when a firm lacks OAuth client credentials.
	ErrMissingCredentials = errors.New("missing Zoho OAuth credentials")
)

// bodyLimit is how much of a failed response body is kept in an APIError.
const bodyLimit = 300

// APIError describes a failed call against a Zoho Books resource.
type APIError struct {
	// Op is the client operation that failed (e.g. "ListContacts").
	Op string

	// Resource is the API path that was called.
	Resource string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	// Code and Message come from the Zoho response envelope when present.
	Code    int
	Message string

	// Body is the response body, truncated.
	Body string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("zoho: %s %s failed: %v", e.Op, e.Resource, e.Err)
	case e.Message != "":
		return fmt.Sprintf("zoho: %s %s failed: status %d (code %d: %s): %v", e.Op, e.Resource, e.StatusCode, e.Code, e.Message, e.Err)
	case e.Body != "":
		return fmt.Sprintf("zoho: %s %s failed: status %d: %s: %v", e.Op, e.Resource, e.StatusCode, e.Body, e.Err)
	default:
		return fmt.Sprintf("zoho: %s %s failed: status %d: %v", e.Op, e.Resource, e.StatusCode, e.Err)
	}
}

// Unwrap returns the underlying error for error unwrapping.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *APIError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func truncate(body []byte) string {
	if len(body) <= bodyLimit {
		return string(body)
	}
	return string(body[:bodyLimit]) + "..."
}

// statusError maps a final HTTP status to its sentinel.
func statusError(status int) error {
	switch status {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	default:
		return ErrRequestFailed
	}
}
