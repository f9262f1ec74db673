package engine

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/verificapessoa/verificapessoa/internal/search/retry"
)

// ErrEngineUnavailable wraps every failure surfaced by Search once the retry
// policy is exhausted or the failure is permanent.
var ErrEngineUnavailable = errors.New("engine unavailable")

// ErrBlocked marks a challenge page or bot wall.
var ErrBlocked = errors.New("blocked by anti-bot challenge")

// ErrRateLimited matches a StatusError carrying 429.
var ErrRateLimited = errors.New("rate limited")

// StatusError is a non-200 response.
type StatusError struct {
	Engine string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Engine, e.Code)
}

// Is reports 429 responses as ErrRateLimited.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.Code == http.StatusTooManyRequests
}

// RetryClass maps status codes onto retry classes.
func (e *StatusError) RetryClass() retry.Class {
	switch {
	case e.Code == http.StatusTooManyRequests:
		return retry.RateLimited
	case e.Code == http.StatusForbidden:
		return retry.Blocked
	case e.Code >= 500, e.Code >= 200 && e.Code < 300:
		return retry.Transient
	default:
		return retry.Permanent
	}
}

// BlockedError is a response recognised as a challenge.
type BlockedError struct {
	Engine string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", e.Engine, ErrBlocked, e.Reason)
}

func (e *BlockedError) Unwrap() error { return ErrBlocked }

// RetryClass implements retry.Classified.
func (e *BlockedError) RetryClass() retry.Class { return retry.Blocked }

type parseError struct{ err error }

func (e parseError) Error() string           { return "parse results: " + e.err.Error() }
func (e parseError) Unwrap() error           { return e.err }
func (e parseError) RetryClass() retry.Class { return retry.Permanent }

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var se *StatusError
	var be *BlockedError
	var pe parseError
	switch {
	case errors.As(err, &be):
		return "blocked"
	case errors.As(err, &se) && se.Code == http.StatusTooManyRequests:
		return "rate_limited"
	case errors.As(err, &se):
		return "http_error"
	case errors.As(err, &pe):
		return "parse_error"
	default:
		return "transport_error"
	}
}
