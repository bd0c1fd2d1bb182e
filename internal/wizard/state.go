// Package wizard drives a user through an assessment: one phase (or, in
// server-driven mode, one question) at a time, validating each step before
// persisting it and finalizing the session into a result.
package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// State is the controller's position in its state machine.
type State int

const (
	StateLoading State = iota
	StateAwaitingInput
	StateSaving
	StateCompleting
	StateError
	StateActiveConflict
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateSaving:
		return "saving"
	case StateCompleting:
		return "completing"
	case StateError:
		return "error"
	case StateActiveConflict:
		return "active-conflict"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether a request is in flight in this state.
func (s State) Busy() bool {
	return s == StateLoading || s == StateSaving || s == StateCompleting
}

var (
	// ErrBusy is returned when an action is triggered while another request
	// is still in flight.
	ErrBusy = errors.New("another request is in progress")

	// ErrAlreadyCompleted is returned for actions on a completed session.
	ErrAlreadyCompleted = errors.New("assessment already completed")

	// ErrPreviousUnavailable is returned when there is no earlier step to
	// go back to.
	ErrPreviousUnavailable = errors.New("no previous step")

	// ErrNoSession is returned for actions that need a session before one
	// was started or loaded.
	ErrNoSession = errors.New("no active session")

	// ErrNotReady is returned for form actions outside awaiting-input,
	// for example after a load failure.
	ErrNotReady = errors.New("wizard is not awaiting input")

	// ErrNoConflict is returned by conflict actions outside the
	// active-conflict state.
	ErrNoConflict = errors.New("no active assessment conflict")

	// ErrFinished is returned by a Source when no steps remain.
	ErrFinished = errors.New("no questions remaining")
)

// Mode selects how questions are delivered.
type Mode string

const (
	// ModeStatic uses the built-in phase catalog.
	ModeStatic Mode = "static"

	// ModeServer asks the server for one question at a time.
	ModeServer Mode = "server"
)

// ParseMode validates a mode name. "web" and "server-driven" are accepted
// as aliases of server mode; "app" and "in-app" of static mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "app", "in-app":
		return ModeStatic, nil
	case "server", "server-driven", "web":
		return ModeServer, nil
	}
	return "", fmt.Errorf("unknown wizard mode %q (want static or server)", s)
}
