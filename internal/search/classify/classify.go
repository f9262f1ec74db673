// Package classify turns the raw results of one search into typed findings.
// Every pass is a pure function of its input; a Classifier holds only
// read-only tables and is safe for concurrent use.
package classify

import (
	"strings"

	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

type Classifier struct {
	rules    Rules
	reserved map[string]bool
}

// New builds a classifier over rules. Zero caps fall back to the defaults.
func New(rules Rules) *Classifier {
	def := DefaultRules()
	fill := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&rules.MaxCaseNumbers, def.MaxCaseNumbers)
	fill(&rules.MaxLegalMentions, def.MaxLegalMentions)
	fill(&rules.MaxCNPJ, def.MaxCNPJ)
	fill(&rules.MaxCorporateTies, def.MaxCorporateTies)
	fill(&rules.MaxPerPlatform, def.MaxPerPlatform)
	fill(&rules.MaxFamily, def.MaxFamily)
	fill(&rules.MaxGeneral, def.MaxGeneral)
	fill(&rules.GeneralTitleLen, def.GeneralTitleLen)
	fill(&rules.GeneralSnippetLen, def.GeneralSnippetLen)
	if rules.LegalTrigger.Pattern == nil {
		rules.LegalTrigger = def.LegalTrigger
	}
	if rules.CorporateTrigger.Pattern == nil {
		rules.CorporateTrigger = def.CorporateTrigger
	}

	reserved := make(map[string]bool, len(rules.ReservedSegments))
	for _, s := range rules.ReservedSegments {
		reserved[strings.ToLower(s)] = true
	}
	return &Classifier{rules: rules, reserved: reserved}
}

var defaultClassifier = New(DefaultRules())

// Run classifies with the default tables.
func Run(results []engine.RawResult, corpus string) report.Findings {
	return defaultClassifier.Run(results, corpus)
}

// Run executes the five passes. corpus is the lower-cased text the
// aggregator built from results.
func (c *Classifier) Run(results []engine.RawResult, corpus string) report.Findings {
	return report.Findings{
		Legal:     c.legal(results, corpus),
		Corporate: c.corporate(results, corpus),
		Social:    c.social(results, strings.ToLower(corpus)),
		Family:    c.family(results),
		General:   c.general(results),
	}
}

func lower(r engine.RawResult) string {
	return strings.ToLower(r.Text())
}

// describe prefers the snippet and falls back to the title.
func describe(r engine.RawResult, n int) string {
	if r.Snippet != "" {
		return engine.Truncate(r.Snippet, n)
	}
	return engine.Truncate(r.Title, n)
}

// firstContaining returns the index of the first result whose text holds s.
func firstContaining(results []engine.RawResult, s string) int {
	for i, r := range results {
		if strings.Contains(r.Text(), s) || strings.Contains(r.URL, s) {
			return i
		}
	}
	return -1
}

// distinct keeps the first occurrence of each value.
func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
