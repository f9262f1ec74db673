package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/search/engine"
)

const descriptionLen = 300

func (c *Classifier) legal(results []engine.RawResult, corpus string) []report.Finding {
	phraseCount := 0
	for _, m := range processCountRe.FindAllStringSubmatch(corpus, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > phraseCount {
			phraseCount = n
		}
	}
	cases := distinct(cnjRe.FindAllString(corpus, -1))
	count := max(phraseCount, len(cases))

	var out []report.Finding
	used := make(map[int]bool)
	for i, num := range cases {
		if i >= c.rules.MaxCaseNumbers {
			break
		}
		rec := report.LegalRecord{
			Type:        "Processo judicial",
			Title:       "Processo " + num,
			Description: "Número de processo citado em fonte pública",
			CaseNumber:  num,
			Tribunal:    TribunalFromCaseNumber(num),
		}
		source := report.SourceAnalysis
		if idx := firstContaining(results, num); idx >= 0 {
			r := results[idx]
			used[idx] = true
			text := lower(r)
			if rec.Tribunal == "" {
				rec.Tribunal = c.tribunal(text)
			}
			rec.ActionType = c.actionType(text)
			rec.Description = describe(r, descriptionLen)
			rec.URL = r.URL
			source = r.Engine
		}
		out = append(out, report.NewLegal(source, rec))
	}

	mentions := 0
	for i, r := range results {
		if mentions >= c.rules.MaxLegalMentions {
			break
		}
		if used[i] {
			continue
		}
		text := lower(r)
		if !c.rules.LegalTrigger.Match(text) {
			continue
		}
		out = append(out, report.NewLegal(r.Engine, report.LegalRecord{
			Type:        "Menção judicial",
			Title:       r.Title,
			Description: describe(r, descriptionLen),
			Tribunal:    c.tribunal(text),
			ActionType:  c.actionType(text),
			URL:         r.URL,
		}))
		mentions++
	}

	if count > 0 {
		summary := report.NewLegal(report.SourceAnalysis, report.LegalRecord{
			Type:        "Resumo",
			Title:       fmt.Sprintf("%d processo(s) identificado(s)", count),
			Description: "Estimativa a partir de menções públicas; pode incluir homônimos",
			Count:       count,
			Summary:     true,
		})
		out = append([]report.Finding{summary}, out...)
	}
	return out
}

func (c *Classifier) tribunal(text string) string {
	for _, r := range c.rules.Tribunals {
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if r.Label != "" {
			return r.Label
		}
		if len(m) > 1 && m[1] != "" {
			return strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(m[1]))
		}
		return strings.ToUpper(r.Key)
	}
	return ""
}

func (c *Classifier) actionType(text string) string {
	if r, ok := FirstMatch(c.rules.ActionTypes, text); ok {
		return r.Label
	}
	return ""
}

// State court codes of the CNJ numbering, segment 8.
var stateCourts = map[string]string{
	"01": "TJAC", "02": "TJAL", "03": "TJAP", "04": "TJAM", "05": "TJBA", "06": "TJCE",
	"07": "TJDFT", "08": "TJES", "09": "TJGO", "10": "TJMA", "11": "TJMT", "12": "TJMS",
	"13": "TJMG", "14": "TJPA", "15": "TJPB", "16": "TJPR", "17": "TJPE", "18": "TJPI",
	"19": "TJRJ", "20": "TJRN", "21": "TJRS", "22": "TJRO", "23": "TJRR", "24": "TJSC",
	"25": "TJSE", "26": "TJSP", "27": "TJTO",
}

// TribunalFromCaseNumber reads the court out of a CNJ number
// (NNNNNNN-DD.AAAA.J.TR.OOOO). It returns "" when the segment is unknown.
func TribunalFromCaseNumber(num string) string {
	parts := strings.Split(num, ".")
	if len(parts) != 5 {
		return ""
	}
	segment, court := parts[2], parts[3]
	n, _ := strconv.Atoi(court)
	switch segment {
	case "1":
		return "STF"
	case "3":
		return "STJ"
	case "4":
		return "TRF" + strconv.Itoa(n)
	case "5":
		if n == 0 {
			return "TST"
		}
		return "TRT" + strconv.Itoa(n)
	case "6":
		return "TRE"
	case "7":
		return "STM"
	case "8":
		return stateCourts[court]
	case "9":
		return "TJM"
	}
	return ""
}
