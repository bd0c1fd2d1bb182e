package api

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// CodeActiveAssessment is the error code the server uses when the user
// already has an in-progress session.
const CodeActiveAssessment = "active_assessment"

// Error is a non-2xx response from the API.
type Error struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ConflictError indicates the user already has an active session. It is
// recoverable: the caller may resume SessionID or delete it and retry.
type ConflictError struct {
	SessionID string
	Err       *Error
}

func (e *ConflictError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("active assessment already exists (session %s)", e.SessionID)
	}
	return "active assessment already exists"
}

func (e *ConflictError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// IsConflict reports whether err carries an active-session conflict.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
