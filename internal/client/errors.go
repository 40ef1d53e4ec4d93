package client

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted is returned when a request still fails after all
// configured retries. The underlying cause is wrapped.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError reports a non-success HTTP status code.
// Callers can use errors.As to inspect the code.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int

	// URL is the request URL.
	URL string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Retryable reports whether the status indicates a transient server
// failure worth retrying: 500, 502, 503, or 504.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case 500, 502, 503, 504:
		return true
	}
	return false
}
