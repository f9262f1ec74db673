package classify

import (
	"net/url"
	"strings"

	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

// general keeps the first results verbatim, bucketed by the first matching
// rule.
func (c *Classifier) general(results []engine.RawResult) []report.Finding {
	n := min(len(results), c.rules.MaxGeneral)
	out := make([]report.Finding, 0, n)
	for _, r := range results[:n] {
		out = append(out, report.NewGeneral(r.Engine, report.GeneralMention{
			Kind:    c.mentionKind(r),
			Title:   engine.Truncate(r.Title, c.rules.GeneralTitleLen),
			Snippet: engine.Truncate(r.Snippet, c.rules.GeneralSnippetLen),
			URL:     r.URL,
		}))
	}
	return out
}

func (c *Classifier) mentionKind(r engine.RawResult) report.MentionKind {
	host := hostOf(r.URL)
	text := lower(r)
	for _, rule := range c.rules.General {
		if matchesDomain(host, rule.Domains) || (rule.Words != nil && rule.Words.Match(text)) {
			return rule.Kind
		}
	}
	return report.MentionGeneric
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func matchesDomain(host string, domains []string) bool {
	if host == "" {
		return false
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
