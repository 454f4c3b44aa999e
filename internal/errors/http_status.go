package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPStatusError represents a non-2xx answer from a metadata provider.
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	Body       string // first bytes of the response body, if any
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("%s returned HTTP %d %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Reason returns a short, log-friendly label for the failure.
func (e *HTTPStatusError) Reason() string {
	return fmt.Sprintf("http_%d", e.StatusCode)
}

// NewHTTPStatusError creates an HTTPStatusError, truncating long bodies.
func NewHTTPStatusError(provider string, statusCode int, body string) *HTTPStatusError {
	const maxBody = 200
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &HTTPStatusError{Provider: provider, StatusCode: statusCode, Body: body}
}

// IsHTTPStatusError checks if error is an HTTPStatusError
func IsHTTPStatusError(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}
