package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/verificapessoa/verificapessoa/internal/lock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakeExpirer) ExpirePendingTransactions(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func (f *fakeExpirer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunOnceUsesTTL(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeExpirer{n: 2}
	j, err := NewJanitor(store, lock.NewLocal(), JanitorOptions{PendingTTL: 48 * time.Hour, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewJanitor: %v", err)
	}
	n, err := j.RunOnce(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	if want := now.Add(-48 * time.Hour); !store.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %v, want %v", store.cutoffs[0], want)
	}
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	l := lock.NewLocal()
	if ok, _ := l.Acquire(context.Background(), janitorLock, time.Hour); !ok {
		t.Fatalf("setup acquire failed")
	}
	store := &fakeExpirer{n: 1}
	j, _ := NewJanitor(store, l, JanitorOptions{})
	n, err := j.RunOnce(context.Background())
	if err != nil || n != 0 || store.calls() != 0 {
		t.Fatalf("RunOnce = %d, %v, calls=%d", n, err, store.calls())
	}
}

func TestRunOnceReleasesLock(t *testing.T) {
	l := lock.NewLocal()
	store := &fakeExpirer{err: errors.New("db down")}
	j, _ := NewJanitor(store, l, JanitorOptions{})
	if _, err := j.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if ok, _ := l.Acquire(context.Background(), janitorLock, time.Minute); !ok {
		t.Fatalf("lock leaked after failed pass")
	}
}

func TestInvalidSchedule(t *testing.T) {
	if _, err := NewJanitor(&fakeExpirer{}, nil, JanitorOptions{Schedule: "not a cron"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 30, 0, 0, time.UTC)
	j, _ := NewJanitor(&fakeExpirer{}, nil, JanitorOptions{Schedule: "@hourly", Now: func() time.Time { return now }})
	j.lastRun = now.Add(-20 * time.Minute)
	if j.due() {
		t.Fatalf("12:10 -> next 13:00 should not be due at 12:30")
	}
	j.lastRun = now.Add(-40 * time.Minute)
	if !j.due() {
		t.Fatalf("11:50 -> next 12:00 should be due at 12:30")
	}
}

func TestStartStop(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := &fakeExpirer{}
	j, _ := NewJanitor(store, nil, JanitorOptions{Schedule: "@hourly", Tick: 5 * time.Millisecond, Now: clock})
	j.Start(context.Background())

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for store.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	j.Stop()
	if store.calls() == 0 {
		t.Fatalf("janitor never ran")
	}
}
