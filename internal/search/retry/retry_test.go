package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classErr struct{ c Class }

func (e classErr) Error() string     { return "class " + e.c.String() }
func (e classErr) RetryClass() Class { return e.c }

func recordingPolicy(waits *[]time.Duration) Policy {
	p := Policy{
		MaxAttempts:      4,
		Backoff:          []time.Duration{time.Second, 3 * time.Second},
		RateLimitBackoff: 30 * time.Second,
		BlockedBackoff:   time.Minute,
	}
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return p
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Do(context.Background(), recordingPolicy(&waits), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, waits)
}

func TestDoUsesClassSpecificBackoff(t *testing.T) {
	var waits []time.Duration
	errs := []error{classErr{RateLimited}, classErr{Blocked}, classErr{Transient}}
	err := Do(context.Background(), recordingPolicy(&waits), func(ctx context.Context, attempt int) error {
		if attempt <= len(errs) {
			return errs[attempt-1]
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute, 3 * time.Second}, waits)
}

func TestDoStopsOnPermanent(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := Do(context.Background(), recordingPolicy(&waits), func(ctx context.Context, attempt int) error {
		calls++
		return classErr{Permanent}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestDoExhausts(t *testing.T) {
	var waits []time.Duration
	sentinel := errors.New("boom")
	err := Do(context.Background(), recordingPolicy(&waits), func(ctx context.Context, attempt int) error {
		return sentinel
	})
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 4, ex.Attempts)
	assert.ErrorIs(t, err, sentinel)
	assert.Len(t, waits, 3)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, Backoff: []time.Duration{time.Hour}}
	calls := 0
	go cancel()
	err := Do(ctx, p, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, 1)
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, Transient, ClassOf(errors.New("x")))
	assert.Equal(t, Permanent, ClassOf(context.DeadlineExceeded))
	assert.Equal(t, Blocked, ClassOf(classErr{Blocked}))
}

func TestNormalizeFillsDefaults(t *testing.T) {
	p := Policy{}.Normalize()
	def := DefaultPolicy()
	assert.Equal(t, def.MaxAttempts, p.MaxAttempts)
	assert.Equal(t, def.Backoff, p.Backoff)
	assert.Equal(t, def.BlockedBackoff, p.Delay(1, Blocked))
	assert.Equal(t, def.Backoff[len(def.Backoff)-1], p.Delay(10, Transient))
}
