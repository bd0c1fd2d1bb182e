package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies why a provider call failed.
type Kind string

const (
	KindAuth         Kind = "auth"          // key rejected
	KindRateLimit    Kind = "rate_limit"    // 429
	KindUnavailable  Kind = "unavailable"   // 5xx, network, timeouts
	KindBadRequest   Kind = "bad_request"   // unknown model or a request the provider refuses
	KindInvalidReply Kind = "invalid_reply" // reply did not match the schema
	KindTruncated    Kind = "truncated"     // reply hit the token limit
)

// Error is a failed provider call.
type Error struct {
	Provider string
	Kind     Kind
	Status   int // HTTP status, 0 when none was received

	// RetryAfter is the pause the provider asked for, if any.
	RetryAfter time.Duration

	// Content is the reply that failed the schema check.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the same request may succeed later.
func (e *Error) Transient() bool {
	return e.Kind == KindRateLimit || e.Kind == KindUnavailable
}

// Hint tells the user what to change after a failed probe.
func (e *Error) Hint() string {
	switch e.Kind {
	case KindAuth:
		return "the API key was rejected; check it with the provider's console"
	case KindBadRequest:
		return "the provider refused the request; check the model id"
	case KindRateLimit:
		return "the account is rate limited; try again later or raise its quota"
	case KindInvalidReply, KindTruncated:
		return "the model does not follow structured output well; pick another model"
	default:
		return "the provider could not be reached; check the base URL and network"
	}
}

// KindOf returns the kind of a provider error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HintFor returns the hint of a provider error, or "".
func HintFor(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint()
	}
	return ""
}

// fromStatus classifies an SDK error by the HTTP status it carried.
func fromStatus(provider string, status int, err error) *Error {
	e := &Error{Provider: provider, Status: status, Err: err}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		e.Kind = KindBadRequest
	default:
		e.Kind = KindUnavailable
	}
	return e
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
