// Package search runs the background-check pipeline: plan queries, fetch
// them through the engine chain, classify the results and assemble the
// report.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/internal/logging"
	"github.com/verificapessoa/verificapessoa/internal/metrics"
	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/aggregator"
	"github.com/verificapessoa/verificapessoa/internal/search/classify"
	"github.com/verificapessoa/verificapessoa/internal/search/planner"
)

// DefaultTimeout bounds one PerformSearch call.
const DefaultTimeout = 3 * time.Minute

var (
	// ErrInvalidInput is returned when the subject has neither name nor id.
	ErrInvalidInput = planner.ErrInvalidInput
	// ErrSearchFailed wraps cancellation and deadline errors. No partial
	// report accompanies it.
	ErrSearchFailed = errors.New("search failed")
)

// Runner executes the planned queries. *aggregator.Aggregator implements it.
type Runner interface {
	Run(ctx context.Context, queries []string) (aggregator.Result, error)
}

type Options struct {
	Timeout       time.Duration
	EngineCount   int
	RiskThreshold int
	Classifier    *classify.Classifier
	Logger        *zap.Logger
	Now           func() time.Time
}

type Service struct {
	runner     Runner
	classifier *classify.Classifier
	assembler  report.Assembler
	timeout    time.Duration
	log        *zap.Logger
}

func NewService(runner Runner, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RiskThreshold <= 0 {
		opts.RiskThreshold = report.DefaultRiskThreshold
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New(classify.DefaultRules())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		runner:     runner,
		classifier: opts.Classifier,
		assembler: report.Assembler{
			EngineCount:   opts.EngineCount,
			RiskThreshold: opts.RiskThreshold,
			Now:           opts.Now,
		},
		timeout: opts.Timeout,
		log:     opts.Logger,
	}
}

// PerformSearch builds the report for subject. Engine failures degrade the
// report to placeholders; only invalid input and cancellation are errors.
func (s *Service) PerformSearch(ctx context.Context, subject report.Subject) (report.Report, error) {
	subject = subject.Normalize()
	queries, err := planner.Expand(subject)
	if err != nil {
		return report.Report{}, err
	}

	log := logging.FromContextOr(ctx, s.log)
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.runner.Run(ctx, queries)
	if err != nil {
		metrics.SearchDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		log.Warn("search aborted", zap.String("subject", subject.Label()), zap.Error(err))
		return report.Report{}, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	findings := s.classifier.Run(res.Results, res.Corpus)
	r := s.assembler.Assemble(subject, findings, len(res.Results))
	observeFindings(r)

	metrics.SearchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	log.Info("search completed",
		zap.String("subject", subject.Label()),
		zap.Int("queries", len(queries)),
		zap.Int("results", len(res.Results)),
		zap.Int("profiles_found", r.ProfilesFound),
		zap.String("risk", r.RiskAssessment),
		zap.Duration("elapsed", time.Since(start)))
	return r, nil
}

func observeFindings(r report.Report) {
	for _, sec := range r.Sections() {
		for _, f := range sec.Items {
			if !f.Placeholder {
				metrics.FindingsTotal.WithLabelValues(string(f.Category)).Inc()
			}
		}
	}
}
