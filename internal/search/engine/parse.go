package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selectors lists CSS selectors per field, tried in order until one yields a
// value. Markup changes on the engine side usually break only the first entry.
type Selectors struct {
	Container []string
	Title     []string
	Snippet   []string
	Link      []string
}

type compiledSelectors struct {
	container, title, snippet, link []cascadia.Selector
}

func compileSelectors(s Selectors) (compiledSelectors, error) {
	var out compiledSelectors
	var err error
	if out.container, err = compileList(s.Container); err != nil {
		return out, err
	}
	if out.title, err = compileList(s.Title); err != nil {
		return out, err
	}
	if out.snippet, err = compileList(s.Snippet); err != nil {
		return out, err
	}
	if out.link, err = compileList(s.Link); err != nil {
		return out, err
	}
	return out, nil
}

func compileList(list []string) ([]cascadia.Selector, error) {
	out := make([]cascadia.Selector, 0, len(list))
	for _, raw := range list {
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile selector %q: %w", raw, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

type hit struct {
	title, snippet, href string
}

// parseResults extracts hits from a result page. Containers nested inside an
// already selected container are skipped.
func parseResults(r io.Reader, sel compiledSelectors) ([]hit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var containers []*html.Node
	for _, s := range sel.container {
		if nodes := s.MatchAll(doc); len(nodes) > 0 {
			containers = nodes
			break
		}
	}

	chosen := make(map[*html.Node]bool, len(containers))
	hits := make([]hit, 0, len(containers))
	for _, c := range containers {
		if hasChosenAncestor(c, chosen) {
			continue
		}
		chosen[c] = true
		h := hit{
			title:   firstText(c, sel.title),
			snippet: firstText(c, sel.snippet),
			href:    firstHref(c, sel.link),
		}
		if h.title == "" || h.href == "" {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func hasChosenAncestor(n *html.Node, chosen map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if chosen[p] {
			return true
		}
	}
	return false
}

func firstText(root *html.Node, sels []cascadia.Selector) string {
	for _, s := range sels {
		if n := s.MatchFirst(root); n != nil {
			if t := textContent(n); t != "" {
				return t
			}
		}
	}
	return ""
}

// firstHref returns the first href found by the link selectors. A matched
// element without href (e.g. a <cite>) contributes its text when it looks
// like a URL.
func firstHref(root *html.Node, sels []cascadia.Selector) string {
	for _, s := range sels {
		for _, n := range s.MatchAll(root) {
			if href := attr(n, "href"); href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
				return href
			}
			if t := textContent(n); isHTTP(t) {
				return strings.Fields(t)[0]
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpaces(b.String())
}

func toResults(engineID string, ownHosts []string, hits []hit, limit int) []RawResult {
	out := make([]RawResult, 0, min(len(hits), limit))
	for _, h := range hits {
		if len(out) >= limit {
			break
		}
		link := resolve(h.href, ownHosts)
		if link == "" {
			continue
		}
		out = append(out, NewRawResult(engineID, h.title, h.snippet, link))
	}
	return out
}
