// Package planner expands a search subject into the ordered query list sent
// to the engines.
package planner

import (
	"errors"
	"strings"
	"unicode"

	"github.com/verificapessoa/verificapessoa/internal/report"
)

// MaxQueries bounds the output of Expand.
const MaxQueries = 10

// ErrInvalidInput is returned for a subject with neither name nor id.
var ErrInvalidInput = errors.New("subject needs a name or a national id")

// Template renders one query from the quoted search term.
type Template struct {
	Name   string
	Format func(term string) string
}

// Platforms lists the social sites queried with a site: restriction.
var Platforms = []string{"linkedin.com", "facebook.com", "instagram.com", "twitter.com"}

// Templates returns the query templates in emission order.
func Templates() []Template {
	out := []Template{
		{Name: "exact", Format: func(t string) string { return t }},
		{Name: "geographic", Format: func(t string) string { return t + " brasil" }},
		{Name: "legal", Format: func(t string) string { return t + " processo OR jusbrasil" }},
		{Name: "corporate", Format: func(t string) string { return t + " cnpj OR empresa OR sócio" }},
	}
	for _, p := range Platforms {
		out = append(out, Template{Name: "site:" + p, Format: func(t string) string { return t + " site:" + p }})
	}
	return out
}

// Expand returns the queries for subject. The name drives the templates when
// present; a national id alone takes its place. With both, the id adds one
// exact query of its own.
func Expand(subject report.Subject) ([]string, error) {
	subject = subject.Normalize()
	if subject.Empty() {
		return nil, ErrInvalidInput
	}
	id := FormatNationalID(subject.NationalID)

	term := subject.Name
	if term == "" {
		term = id
	}
	queries := make([]string, 0, MaxQueries)
	for _, t := range Templates() {
		queries = append(queries, t.Format(quote(term)))
	}
	if subject.Name != "" && id != "" {
		queries = append(queries, quote(id))
	}
	if len(queries) > MaxQueries {
		queries = queries[:MaxQueries]
	}
	return queries, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

// FormatNationalID renders an 11-digit CPF as 000.000.000-00, the form public
// pages print. Anything else is returned trimmed.
func FormatNationalID(id string) string {
	id = strings.TrimSpace(id)
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		if r == '.' || r == '-' || r == ' ' {
			return -1
		}
		return 'x'
	}, id)
	if len(digits) != 11 || strings.ContainsRune(digits, 'x') {
		return id
	}
	return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
}
