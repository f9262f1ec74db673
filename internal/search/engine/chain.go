package engine

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMinResults is the result count at which a Chain stops escalating.
const DefaultMinResults = 5

// ChainOptions configure escalation.
type ChainOptions struct {
	MinResults int
	// Concurrent queries every engine at once and merges in priority order.
	Concurrent bool
	Logger     *zap.Logger
}

// Chain asks engines in priority order and stops once a query has gathered
// MinResults results.
type Chain struct {
	engines    []Engine
	minResults int
	concurrent bool
	log        *zap.Logger
}

func NewChain(engines []Engine, opts ChainOptions) *Chain {
	if opts.MinResults <= 0 {
		opts.MinResults = DefaultMinResults
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Chain{
		engines:    engines,
		minResults: opts.MinResults,
		concurrent: opts.Concurrent,
		log:        opts.Logger,
	}
}

// Len is the number of configured engines.
func (c *Chain) Len() int { return len(c.engines) }

// IDs lists engine ids in priority order.
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.engines))
	for i, e := range c.engines {
		ids[i] = e.ID()
	}
	return ids
}

// Fetch returns the merged results for query. It never fails; an empty slice
// means every engine came back empty.
func (c *Chain) Fetch(ctx context.Context, query string) []RawResult {
	if c.concurrent {
		return c.fetchConcurrent(ctx, query)
	}
	var acc []RawResult
	for _, e := range c.engines {
		if ctx.Err() != nil {
			break
		}
		acc = append(acc, e.Fetch(ctx, query)...)
		if len(acc) >= c.minResults {
			break
		}
		c.log.Debug("escalating", zap.String("engine", e.ID()), zap.String("query", query), zap.Int("results", len(acc)))
	}
	return acc
}

func (c *Chain) fetchConcurrent(ctx context.Context, query string) []RawResult {
	batches := make([][]RawResult, len(c.engines))
	var g errgroup.Group
	for i, e := range c.engines {
		g.Go(func() error {
			batches[i] = e.Fetch(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	var acc []RawResult
	for _, b := range batches {
		acc = append(acc, b...)
		if len(acc) >= c.minResults {
			break
		}
	}
	return acc
}
