// Package engine scrapes public search engine result pages into RawResults.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/internal/metrics"
	"github.com/verificapessoa/verificapessoa/internal/search/retry"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 20
	HardMaxResults    = 50

	maxBodyBytes = 4 << 20
)

// Engine fetches results for one query. Fetch never fails: errors are logged
// and an empty slice is returned.
type Engine interface {
	ID() string
	Fetch(ctx context.Context, query string) []RawResult
}

// Doer is the subset of *http.Client used by engines.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Spec describes one engine's request shape and result markup.
type Spec struct {
	ID      string
	BaseURL string
	// Params builds the query string for a search.
	Params func(query string, limit int) url.Values
	// OwnHosts are hosts whose links are engine navigation, not results.
	OwnHosts []string
	// BlockMarkers are lower-case body substrings that identify a challenge.
	BlockMarkers []string
	// ChallengePaths are URL path prefixes a blocked request redirects to.
	ChallengePaths []string
	Selectors      Selectors
}

// Options are shared by every engine built from a Spec.
type Options struct {
	Client     Doer
	Timeout    time.Duration
	Identities []Identity
	MinDelay   time.Duration
	MaxDelay   time.Duration
	MaxResults int
	Retry      retry.Policy
	Logger     *zap.Logger

	// Sleep waits out the pre-request delay; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Intn picks identities and delays; nil uses math/rand/v2.
	Intn func(n int) int
}

func (o Options) normalize() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	if len(o.Identities) == 0 {
		o.Identities = DefaultIdentities()
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MaxResults > HardMaxResults {
		o.MaxResults = HardMaxResults
	}
	o.Retry = o.Retry.Normalize()
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
	if o.Intn == nil {
		o.Intn = rand.IntN
	}
	return o
}

type htmlEngine struct {
	spec Spec
	base *url.URL
	sel  compiledSelectors
	opts Options
	log  *zap.Logger
}

// New builds an engine from spec. It fails only on a malformed base URL or
// selector.
func New(spec Spec, opts Options) (Engine, error) {
	if spec.ID == "" {
		return nil, errors.New("engine spec without id")
	}
	base, err := url.Parse(spec.BaseURL)
	if err != nil || base.Scheme == "" {
		return nil, fmt.Errorf("engine %s: invalid base url %q", spec.ID, spec.BaseURL)
	}
	sel, err := compileSelectors(spec.Selectors)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", spec.ID, err)
	}
	opts = opts.normalize()
	return &htmlEngine{
		spec: spec,
		base: base,
		sel:  sel,
		opts: opts,
		log:  opts.Logger.With(zap.String("engine", spec.ID)),
	}, nil
}

func (e *htmlEngine) ID() string { return e.spec.ID }

func (e *htmlEngine) Fetch(ctx context.Context, query string) []RawResult {
	res, err := e.Search(ctx, query)
	if err != nil {
		if ctx.Err() == nil {
			e.log.Warn("engine fetch failed", zap.String("query", query), zap.Error(err))
		}
		return nil
	}
	return res
}

// Search is Fetch with the error surfaced. Failures wrap ErrEngineUnavailable.
func (e *htmlEngine) Search(ctx context.Context, query string) ([]RawResult, error) {
	var results []RawResult
	err := retry.Do(ctx, e.opts.Retry, func(ctx context.Context, attempt int) error {
		if err := e.opts.Sleep(ctx, e.delay()); err != nil {
			return err
		}
		start := time.Now()
		res, err := e.attempt(ctx, query)
		metrics.EngineRequestDuration.WithLabelValues(e.spec.ID).Observe(time.Since(start).Seconds())
		metrics.EngineRequestsTotal.WithLabelValues(e.spec.ID, outcomeOf(err)).Inc()
		if err != nil {
			e.log.Debug("engine attempt failed",
				zap.String("query", query),
				zap.Int("attempt", attempt),
				zap.Stringer("class", retry.ClassOf(err)),
				zap.Error(err))
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, e.spec.ID, err)
	}
	metrics.EngineResultsTotal.WithLabelValues(e.spec.ID).Add(float64(len(results)))
	e.log.Debug("engine fetch", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

func (e *htmlEngine) delay() time.Duration {
	span := e.opts.MaxDelay - e.opts.MinDelay
	if span <= 0 {
		return e.opts.MinDelay
	}
	return e.opts.MinDelay + time.Duration(e.opts.Intn(int(span/time.Millisecond)+1))*time.Millisecond
}

func (e *htmlEngine) requestURL(query string) string {
	u := *e.base
	if e.spec.Params != nil {
		u.RawQuery = e.spec.Params(query, e.opts.MaxResults).Encode()
	}
	return u.String()
}

func (e *htmlEngine) attempt(ctx context.Context, query string) ([]RawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.requestURL(query), nil)
	if err != nil {
		return nil, parseError{err}
	}
	id := pickIdentity(e.opts.Identities, e.opts.Intn)
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept-Language", id.AcceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.Request != nil && e.onChallengePath(resp.Request.URL) {
		return nil, &BlockedError{Engine: e.spec.ID, Reason: "redirected to " + resp.Request.URL.Path}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if marker := e.blockMarker(body); marker != "" {
		return nil, &BlockedError{Engine: e.spec.ID, Reason: "marker " + marker}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Engine: e.spec.ID, Code: resp.StatusCode}
	}

	hits, err := parseResults(bytes.NewReader(body), e.sel)
	if err != nil {
		return nil, parseError{err}
	}
	return toResults(e.spec.ID, e.spec.OwnHosts, hits, e.opts.MaxResults), nil
}

func (e *htmlEngine) onChallengePath(u *url.URL) bool {
	if u == nil {
		return false
	}
	for _, p := range e.spec.ChallengePaths {
		if strings.HasPrefix(u.Path, p) {
			return true
		}
	}
	return false
}

func (e *htmlEngine) blockMarker(body []byte) string {
	if len(e.spec.BlockMarkers) == 0 {
		return ""
	}
	lower := bytes.ToLower(body)
	for _, m := range e.spec.BlockMarkers {
		if bytes.Contains(lower, []byte(m)) {
			return m
		}
	}
	return ""
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
