package classify

import (
	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

func (c *Classifier) family(results []engine.RawResult) []report.Finding {
	var out []report.Finding
	for _, r := range results {
		if len(out) >= c.rules.MaxFamily {
			break
		}
		rule, ok := FirstMatch(c.rules.Kinship, lower(r))
		if !ok {
			continue
		}
		out = append(out, report.NewFamily(r.Engine, report.FamilyMention{
			Relation: rule.Key,
			Label:    rule.Label,
			Context:  describe(r, descriptionLen),
			URL:      r.URL,
		}))
	}
	return out
}
