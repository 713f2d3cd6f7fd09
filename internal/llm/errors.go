package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTruncated means the reply hit MaxTokens before it was complete.
var ErrTruncated = errors.New("llm reply truncated at max tokens")

// RateLimitError is returned for HTTP 429 responses.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// UnavailableError covers network failures and 5xx responses.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return e.Provider + ": unavailable"
	}
	return fmt.Sprintf("%s: unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError is a 4xx response other than 429, e.g. a bad API key.
type RejectedError struct {
	Provider string
	Status   int
	Err      error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: request rejected (%d): %v", e.Provider, e.Status, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// InvalidOutputError means the reply was not JSON or did not match the
// requested schema.
type InvalidOutputError struct {
	Raw json.RawMessage
	Err error
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("invalid llm output: %v", e.Err)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

// classify maps an SDK error with an HTTP status onto the errors above.
// status is 0 when the SDK did not report one.
func classify(provider string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider, Err: err}
	case status >= 400 && status < 500:
		return &RejectedError{Provider: provider, Status: status, Err: err}
	default:
		return &UnavailableError{Provider: provider, Err: err}
	}
}

// Transient reports whether retrying err may succeed. Invalid output is
// not transient here; the retry decorator gives it one extra attempt.
func Transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *RateLimitError
	var un *UnavailableError
	return errors.As(err, &rl) || errors.As(err, &un)
}
