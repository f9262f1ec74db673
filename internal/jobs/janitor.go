// Package jobs runs periodic maintenance inside the API process.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/internal/lock"
)

const janitorLock = "janitor:expire-pending"

// Expirer is the store operation the janitor drives.
type Expirer interface {
	ExpirePendingTransactions(ctx context.Context, cutoff time.Time) (int64, error)
}

type JanitorOptions struct {
	// Schedule is a cron expression; @hourly and @daily are accepted.
	Schedule string
	// PendingTTL is how long a purchase may stay pending.
	PendingTTL time.Duration
	// Tick is how often the schedule is checked.
	Tick   time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// Janitor expires stale pending transactions on a cron schedule. A lock keeps
// concurrent API instances from running the same pass.
type Janitor struct {
	store  Expirer
	locker lock.Locker
	expr   *cronexpr.Expression
	opts   JanitorOptions

	mu      sync.Mutex
	lastRun time.Time
	stop    chan struct{}
	done    chan struct{}
}

func NewJanitor(store Expirer, locker lock.Locker, opts JanitorOptions) (*Janitor, error) {
	if opts.Schedule == "" {
		opts.Schedule = "@hourly"
	}
	expr, err := cronexpr.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", opts.Schedule, err)
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 72 * time.Hour
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Janitor{store: store, locker: locker, expr: expr, opts: opts}, nil
}

// Start checks the schedule every Tick until Stop or ctx ends.
func (j *Janitor) Start(ctx context.Context) {
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	j.mu.Lock()
	j.lastRun = j.opts.Now()
	j.mu.Unlock()
	ticker := time.NewTicker(j.opts.Tick)
	go func() {
		defer close(j.done)
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if j.due() {
					if _, err := j.RunOnce(ctx); err != nil {
						j.opts.Logger.Warn("janitor pass failed", zap.Error(err))
					}
				}
			}
		}
	}()
}

// Stop ends the loop started by Start and waits for it.
func (j *Janitor) Stop() {
	if j.stop == nil {
		return
	}
	close(j.stop)
	<-j.done
	j.stop = nil
}

func (j *Janitor) due() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	next := j.expr.Next(j.lastRun)
	return !next.IsZero() && !next.After(j.opts.Now())
}

// RunOnce expires pending transactions older than PendingTTL. It returns 0
// without error when another instance holds the lock.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	now := j.opts.Now()
	j.mu.Lock()
	j.lastRun = now
	j.mu.Unlock()

	if j.locker != nil {
		ok, err := j.locker.Acquire(ctx, janitorLock, 2*time.Minute)
		if err != nil {
			return 0, err
		}
		if !ok {
			j.opts.Logger.Debug("janitor lock held elsewhere")
			return 0, nil
		}
		defer func() { _ = j.locker.Release(context.WithoutCancel(ctx), janitorLock) }()
	}

	n, err := j.store.ExpirePendingTransactions(ctx, now.Add(-j.opts.PendingTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.opts.Logger.Info("expired pending transactions", zap.Int64("count", n))
	}
	return n, nil
}
