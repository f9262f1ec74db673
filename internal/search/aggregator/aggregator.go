// Package aggregator runs a query list through the engine chain, pacing
// queries and building the corpus the classifier scans.
package aggregator

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

const (
	DefaultQueryDelay = 2 * time.Second
	DefaultJitter     = time.Second
)

// Fetcher is satisfied by *engine.Chain and by single engines.
type Fetcher interface {
	Fetch(ctx context.Context, query string) []engine.RawResult
}

type Options struct {
	// QueryDelay is the minimum pause between two queries.
	QueryDelay time.Duration
	// Jitter is the maximum random extra added to QueryDelay.
	Jitter time.Duration
	Logger *zap.Logger

	Sleep func(ctx context.Context, d time.Duration) error
	Intn  func(n int) int
}

// Result is everything one run gathered. Results keep engine order within a
// query and query order across queries; duplicates are kept.
type Result struct {
	Results []engine.RawResult
	// Corpus is the lower-cased text of every result, one per line.
	Corpus string
}

type Aggregator struct {
	fetcher Fetcher
	opts    Options
}

func New(f Fetcher, opts Options) *Aggregator {
	if opts.QueryDelay < 0 {
		opts.QueryDelay = 0
	}
	if opts.Jitter < 0 {
		opts.Jitter = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	return &Aggregator{fetcher: f, opts: opts}
}

// Run fetches every query in order. An empty query result never stops the
// batch; a cancelled context does, and partial data is discarded.
func (a *Aggregator) Run(ctx context.Context, queries []string) (Result, error) {
	var (
		results []engine.RawResult
		corpus  strings.Builder
	)
	for i, q := range queries {
		if i > 0 {
			if err := a.opts.Sleep(ctx, a.pause()); err != nil {
				return Result{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		batch := a.fetcher.Fetch(ctx, q)
		a.opts.Logger.Debug("query done", zap.Int("index", i), zap.String("query", q), zap.Int("results", len(batch)))
		for _, r := range batch {
			results = append(results, r)
			corpus.WriteString(strings.ToLower(r.Text()))
			corpus.WriteByte('\n')
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{Results: results, Corpus: corpus.String()}, nil
}

func (a *Aggregator) pause() time.Duration {
	d := a.opts.QueryDelay
	if ms := int(a.opts.Jitter / time.Millisecond); ms > 0 {
		d += time.Duration(a.opts.Intn(ms+1)) * time.Millisecond
	}
	return d
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
