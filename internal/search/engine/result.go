package engine

import (
	"strings"
	"unicode/utf8"
)

// Field caps applied to every RawResult. The corpus built from results is
// scanned repeatedly by the classifier, so both are bounded at creation.
const (
	MaxTitleLen   = 300
	MaxSnippetLen = 500
)

// RawResult is one scraped search hit. Build it with NewRawResult.
type RawResult struct {
	Engine  string `json:"engine"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// NewRawResult collapses whitespace and truncates title and snippet.
func NewRawResult(engine, title, snippet, link string) RawResult {
	return RawResult{
		Engine:  engine,
		Title:   Truncate(collapseSpaces(title), MaxTitleLen),
		Snippet: Truncate(collapseSpaces(snippet), MaxSnippetLen),
		URL:     strings.TrimSpace(link),
	}
}

// Text is the title and snippet joined by a space.
func (r RawResult) Text() string {
	switch {
	case r.Title == "":
		return r.Snippet
	case r.Snippet == "":
		return r.Title
	}
	return r.Title + " " + r.Snippet
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
