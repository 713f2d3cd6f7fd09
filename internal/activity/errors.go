package activity

import (
	"errors"
	"fmt"
)

// Transition errors returned by the session controller.
var (
	ErrNotInProgress  = errors.New("session is not in progress")
	ErrNotCompleted   = errors.New("session is not completed")
	ErrAlreadyStarted = errors.New("session already in progress")
	ErrAbandoned      = errors.New("session was abandoned")
	ErrWrongActivity  = errors.New("operation not supported by this activity")
)

// PermissionError indicates the microphone was denied. The user may grant
// access and retry the same trial; no turn is consumed.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("microphone permission denied: %v", e.Err)
	}
	return "microphone permission denied"
}

func (e *PermissionError) Unwrap() error { return e.Err }

// CaptureError indicates the recognizer heard nothing or its transport failed.
// The same trial can be recorded again.
type CaptureError struct {
	NoSpeech bool
	Err      error
}

func (e *CaptureError) Error() string {
	if e.NoSpeech {
		return "no speech detected"
	}
	return fmt.Sprintf("speech capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// ValidationError rejects an answer locally without consuming a turn.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ContentFetchError reports that adaptive content could not be fetched and
// built-in content was used instead.
type ContentFetchError struct {
	Err error
}

func (e *ContentFetchError) Error() string {
	return fmt.Sprintf("adaptive content unavailable: %v", e.Err)
}

func (e *ContentFetchError) Unwrap() error { return e.Err }

// ScoringError reports a failed submission to the scoring service. The
// session is left intact so the caller can submit again.
type ScoringError struct {
	Endpoint   string
	StatusCode int // 0 for transport errors
	Message    string
	Err        error
}

func (e *ScoringError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("scoring %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("scoring %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("scoring %s: status %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("scoring %s: %v", e.Endpoint, e.Err)
	}
}

func (e *ScoringError) Unwrap() error { return e.Err }

// IsRetryable reports whether the user can retry the failed step.
func IsRetryable(err error) bool {
	var perm *PermissionError
	var capErr *CaptureError
	var scoring *ScoringError
	return errors.As(err, &perm) || errors.As(err, &capErr) || errors.As(err, &scoring)
}
