// Package retry runs an operation under a bounded attempt policy whose
// backoff schedule is plain data.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Class tells Do how to react to a failed attempt.
type Class int

const (
	// Transient failures are retried on the regular backoff schedule.
	Transient Class = iota
	// RateLimited failures are retried after Policy.RateLimitBackoff.
	RateLimited
	// Blocked failures (challenge pages, bot walls) are retried after
	// Policy.BlockedBackoff.
	Blocked
	// Permanent failures are returned immediately.
	Permanent
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case RateLimited:
		return "rate_limited"
	case Blocked:
		return "blocked"
	case Permanent:
		return "permanent"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Classified is implemented by errors that know their retry class.
type Classified interface {
	RetryClass() Class
}

// ClassOf returns the class of err. Unclassified errors are transient;
// context errors are permanent.
func ClassOf(err error) Class {
	if err == nil {
		return Permanent
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Permanent
	}
	var c Classified
	if errors.As(err, &c) {
		return c.RetryClass()
	}
	return Transient
}

// Policy bounds the attempts of one operation.
type Policy struct {
	MaxAttempts      int             `mapstructure:"max_attempts"`
	Backoff          []time.Duration `mapstructure:"backoff"`
	RateLimitBackoff time.Duration   `mapstructure:"rate_limit_backoff"`
	BlockedBackoff   time.Duration   `mapstructure:"blocked_backoff"`

	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error `mapstructure:"-" json:"-"`
}

// DefaultPolicy is three attempts with a 2s/4s schedule.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      3,
		Backoff:          []time.Duration{2 * time.Second, 4 * time.Second},
		RateLimitBackoff: 30 * time.Second,
		BlockedBackoff:   60 * time.Second,
	}
}

// Normalize fills unset fields from DefaultPolicy.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if len(p.Backoff) == 0 {
		p.Backoff = def.Backoff
	}
	if p.RateLimitBackoff <= 0 {
		p.RateLimitBackoff = def.RateLimitBackoff
	}
	if p.BlockedBackoff <= 0 {
		p.BlockedBackoff = def.BlockedBackoff
	}
	return p
}

// Delay returns the wait before the attempt following attempt (1-based)
// that failed with class c. The last schedule entry repeats.
func (p Policy) Delay(attempt int, c Class) time.Duration {
	switch c {
	case RateLimited:
		return p.RateLimitBackoff
	case Blocked:
		return p.BlockedBackoff
	}
	if len(p.Backoff) == 0 {
		return 0
	}
	i := attempt - 1
	if i < 0 {
		i = 0
	}
	if i >= len(p.Backoff) {
		i = len(p.Backoff) - 1
	}
	return p.Backoff[i]
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, fails permanently, the context ends or the
// policy runs out of attempts. attempt is 1-based.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	p = p.Normalize()
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		class := ClassOf(err)
		if class == Permanent {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Delay(attempt, class)); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: p.MaxAttempts, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
