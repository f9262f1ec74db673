package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search"
	"github.com/verificapessoa/verificapessoa/internal/search/aggregator"
	"github.com/verificapessoa/verificapessoa/internal/search/classify"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

// buildPipeline assembles engines, chain, aggregator and classifier into a
// search service.
func buildPipeline(cfg *config.Config, log *zap.Logger) (*search.Service, error) {
	engines, err := engine.Build(cfg.Engines.Order, cfg.Engines.BaseURLs, engine.Options{
		Client:     &http.Client{Timeout: cfg.Engines.Timeout},
		Timeout:    cfg.Engines.Timeout,
		Identities: cfg.Engines.Identities,
		MinDelay:   cfg.Engines.MinDelay,
		MaxDelay:   cfg.Engines.MaxDelay,
		MaxResults: cfg.Search.MaxResultsPerQuery,
		Retry:      cfg.Engines.Retry,
		Logger:     log.Named("engine"),
	})
	if err != nil {
		return nil, err
	}
	chain := engine.NewChain(engines, engine.ChainOptions{
		MinResults: cfg.Search.MinResults,
		Concurrent: cfg.Search.ConcurrentEngines,
		Logger:     log.Named("chain"),
	})
	agg := aggregator.New(chain, aggregator.Options{
		QueryDelay: cfg.Search.QueryDelay,
		Jitter:     cfg.Search.QueryJitter,
		Logger:     log.Named("aggregator"),
	})

	rules := classify.DefaultRules().
		WithDomains(report.MentionNews, cfg.Classify.NewsDomains...).
		WithDomains(report.MentionSports, cfg.Classify.SportsDomains...)

	log.Info("search pipeline ready",
		zap.Strings("engines", chain.IDs()),
		zap.Int("min_results", cfg.Search.MinResults),
		zap.Bool("concurrent", cfg.Search.ConcurrentEngines))

	return search.NewService(agg, search.Options{
		Timeout:       cfg.Search.Timeout,
		EngineCount:   chain.Len(),
		RiskThreshold: cfg.Search.RiskThreshold,
		Classifier:    classify.New(rules),
		Logger:        log.Named("search"),
	}), nil
}
