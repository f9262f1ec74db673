package classify

import (
	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

func (c *Classifier) corporate(results []engine.RawResult, corpus string) []report.Finding {
	var out []report.Finding
	used := make(map[int]bool)

	for i, cnpj := range distinct(cnpjRe.FindAllString(corpus, -1)) {
		if i >= c.rules.MaxCNPJ {
			break
		}
		tie := report.CorporateTie{
			Type:         "CNPJ",
			Company:      "Empresa com CNPJ " + cnpj,
			CNPJ:         cnpj,
			Relationship: RelationshipMentioned,
			Details:      "CNPJ citado em fonte pública",
		}
		source := report.SourceAnalysis
		if idx := firstContaining(results, cnpj); idx >= 0 {
			r := results[idx]
			used[idx] = true
			tie.Company = r.Title
			tie.Relationship = c.relationship(lower(r))
			tie.Details = describe(r, descriptionLen)
			tie.URL = r.URL
			source = r.Engine
		}
		out = append(out, report.NewCorporate(source, tie))
	}

	ties := 0
	for i, r := range results {
		if ties >= c.rules.MaxCorporateTies {
			break
		}
		if used[i] {
			continue
		}
		text := lower(r)
		if !c.rules.CorporateTrigger.Match(text) {
			continue
		}
		out = append(out, report.NewCorporate(r.Engine, report.CorporateTie{
			Type:         "Vínculo empresarial",
			Company:      r.Title,
			Relationship: c.relationship(text),
			Details:      describe(r, descriptionLen),
			URL:          r.URL,
		}))
		ties++
	}
	return out
}

func (c *Classifier) relationship(text string) string {
	if r, ok := FirstMatch(c.rules.Relationships, text); ok {
		return r.Key
	}
	return RelationshipMentioned
}
