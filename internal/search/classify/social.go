package classify

import (
	"strings"

	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

const socialStatus = "Perfil público encontrado"

// social extracts profile usernames from result URLs and from the corpus,
// grouped by platform in table order and deduplicated per platform. A
// username seen in the corpus is credited to the first result whose text
// holds it, or to the analysis when none does.
func (c *Classifier) social(results []engine.RawResult, corpus string) []report.Finding {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = lower(r)
	}

	var out []report.Finding
	for _, p := range c.rules.Platforms {
		seen := make(map[string]bool)
		add := func(source, user string) {
			user = strings.TrimRight(user, ".")
			if user == "" || c.reserved[user] || seen[user] || len(seen) >= c.rules.MaxPerPlatform {
				return
			}
			seen[user] = true
			out = append(out, report.NewSocial(source, report.SocialProfile{
				Platform: p.Name,
				Profile:  user,
				URL:      p.ProfileURL(user),
				Status:   socialStatus,
			}))
		}

		for _, r := range results {
			for _, m := range p.Pattern.FindAllStringSubmatch(strings.ToLower(r.URL), -1) {
				add(r.Engine, m[1])
			}
		}
		for _, m := range p.Pattern.FindAllStringSubmatch(corpus, -1) {
			source := report.SourceAnalysis
			hit := strings.TrimLeftFunc(m[0], isBoundary)
			for i, t := range texts {
				if strings.Contains(t, hit) {
					source = results[i].Engine
					break
				}
			}
			add(source, m[1])
		}
	}
	return out
}

// isBoundary reports runes that may precede a profile host.
func isBoundary(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '-')
}
