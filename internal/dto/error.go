package dto

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrBlocked indicates the remote source refused automated access. It is
// permanent for the affected code and must not be retried.
var ErrBlocked = errors.New("blocked by remote source")

// ErrAlreadyRunning indicates a refresh is already in progress.
var ErrAlreadyRunning = errors.New("a refresh is already running")

// HTTPStatusError indicates the remote returned a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.StatusCode)
}

// ParseError indicates the remote returned a body that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
