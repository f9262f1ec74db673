package report

import (
	"html"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func plainText(s string) string {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// StrictPolicy escapes entities; the template escapes again on output.
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// safeURL keeps http(s) links only.
func safeURL(u string) string {
	u = strings.TrimSpace(u)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return ""
}

type renderItem struct {
	Heading string
	Body    string
	Source  string
	URL     string
	Note    string
}

type renderSection struct {
	Title string
	Items []renderItem
}

type renderData struct {
	Name            string
	GeneratedAt     string
	SourcesSearched int
	ProfilesFound   int
	Risk            string
	Disclaimer      string
	Sections        []renderSection
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<title>Relatório - {{.Name}}</title>
<style>
body{font-family:Arial,sans-serif;background:#0a0a0a;color:#fff;padding:2rem;line-height:1.6}
main{max-width:900px;margin:0 auto;background:#1a1a1a;padding:2rem;border-radius:8px}
h1,h2{color:#4ade80}
.item{background:#0a0a0a;padding:1rem;margin:.5rem 0;border-radius:4px}
.muted{color:#999;font-size:.85rem}
.notice{border:1px solid #ff6b6b;padding:1rem;border-radius:8px;margin-top:2rem}
</style>
</head>
<body>
<main>
<h1>Relatório de investigação</h1>
<h2>{{.Name}}</h2>
<p>{{.Disclaimer}}</p>
<p><strong>Resumo:</strong> {{.ProfilesFound}} resultados encontrados, {{.SourcesSearched}} fontes consultadas, risco {{.Risk}}. Gerado em {{.GeneratedAt}}.</p>
{{range .Sections}}<section>
<h2>{{.Title}} ({{len .Items}})</h2>
{{range .Items}}<div class="item">
<strong>{{.Heading}}</strong><br>
<span>{{.Body}}</span><br>
{{if .Source}}<span class="muted">Fonte: {{.Source}}</span><br>{{end}}
{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener">Ver fonte</a><br>{{end}}
{{if .Note}}<span class="muted">{{.Note}}</span>{{end}}
</div>
{{end}}</section>
{{end}}<div class="notice"><strong>Importante:</strong> este relatório apresenta informações coletadas automaticamente de fontes públicas. Podem existir homônimos ou dados desatualizados.</div>
</main>
</body>
</html>
`))

// RenderHTML writes a standalone HTML document for r. Scraped text is
// reduced to plain text before templating.
func RenderHTML(w io.Writer, r Report) error {
	data := renderData{
		Name:            plainText(r.Name),
		GeneratedAt:     r.Timestamp.Format("02/01/2006 15:04 MST"),
		SourcesSearched: r.SourcesSearched,
		ProfilesFound:   r.ProfilesFound,
		Risk:            r.RiskAssessment,
		Disclaimer:      r.Disclaimer,
	}
	for _, s := range r.Sections() {
		rs := renderSection{Title: s.Title}
		for _, f := range s.Items {
			rs.Items = append(rs.Items, toRenderItem(f))
		}
		data.Sections = append(data.Sections, rs)
	}
	return reportTemplate.Execute(w, data)
}

var relationshipLabels = map[string]string{
	"partner":         "sócio",
	"administrator":   "administrador",
	"owner":           "proprietário",
	"sole_proprietor": "empresário individual",
	"mentioned":       "mencionado",
}

func toRenderItem(f Finding) renderItem {
	it := renderItem{Source: plainText(f.Source), Note: plainText(f.Note)}
	switch {
	case f.Legal != nil:
		it.Heading = f.Legal.Type
		it.Body = f.Legal.Description
		if f.Legal.CaseNumber != "" {
			it.Body = f.Legal.CaseNumber + " - " + it.Body
		}
		it.URL = f.Legal.URL
	case f.Corporate != nil:
		it.Heading = f.Corporate.Type
		it.Body = f.Corporate.Company
		if label := relationshipLabels[f.Corporate.Relationship]; label != "" {
			it.Body += " (" + label + ")"
		}
		if f.Corporate.Details != "" {
			it.Body += " - " + f.Corporate.Details
		}
		it.URL = f.Corporate.URL
	case f.Social != nil:
		it.Heading = f.Social.Platform
		it.Body = f.Social.Profile + " - " + f.Social.Status
		it.URL = f.Social.URL
	case f.Family != nil:
		it.Heading = f.Family.Label
		it.Body = f.Family.Context
		it.URL = f.Family.URL
	case f.General != nil:
		it.Heading = f.General.Title
		it.Body = f.General.Snippet
		it.URL = f.General.URL
	}
	it.Heading = plainText(it.Heading)
	it.Body = plainText(it.Body)
	it.URL = safeURL(it.URL)
	return it
}
