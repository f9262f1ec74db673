package engine

import (
	"fmt"
	"net/url"
	"strconv"
)

// Engine identifiers, in default priority order.
const (
	DuckDuckGo = "duckduckgo"
	Bing       = "bing"
	Google     = "google"
)

// DefaultOrder is the escalation order of a Chain.
var DefaultOrder = []string{DuckDuckGo, Bing, Google}

// DuckDuckGoSpec targets the JavaScript-free HTML endpoint.
func DuckDuckGoSpec() Spec {
	return Spec{
		ID:      DuckDuckGo,
		BaseURL: "https://html.duckduckgo.com/html/",
		Params: func(query string, _ int) url.Values {
			return url.Values{"q": {query}, "kl": {"br-pt"}}
		},
		OwnHosts:       []string{"duckduckgo.com"},
		BlockMarkers:   []string{"anomaly-modal", "bots use duckduckgo too", "please complete the following challenge"},
		ChallengePaths: []string{"/anomaly", "/challenge"},
		Selectors: Selectors{
			Container: []string{"div.result.results_links", "div.result", "div.web-result"},
			Title:     []string{"a.result__a", "h2.result__title a", "h2 a"},
			Snippet:   []string{"a.result__snippet", ".result__snippet", "div.result__body"},
			Link:      []string{"a.result__a", "a.result__url", "h2 a"},
		},
	}
}

// BingSpec targets www.bing.com with Brazilian market parameters.
func BingSpec() Spec {
	return Spec{
		ID:      Bing,
		BaseURL: "https://www.bing.com/search",
		Params: func(query string, limit int) url.Values {
			return url.Values{"q": {query}, "setlang": {"pt-BR"}, "cc": {"BR"}, "count": {strconv.Itoa(limit)}}
		},
		OwnHosts:       []string{"bing.com", "microsoft.com"},
		BlockMarkers:   []string{"id=\"b_captcha", "/turing/captcha", "verify you are a human"},
		ChallengePaths: []string{"/turing/", "/challenge"},
		Selectors: Selectors{
			Container: []string{"li.b_algo", "div.b_algo", "ol#b_results > li"},
			Title:     []string{"h2 a", "h2", "a.tilk"},
			Snippet:   []string{".b_caption p", "p.b_lineclamp2", ".b_snippet", "p"},
			Link:      []string{"h2 a", "a.tilk", "cite"},
		},
	}
}

// GoogleSpec targets www.google.com with Brazilian locale parameters.
func GoogleSpec() Spec {
	return Spec{
		ID:      Google,
		BaseURL: "https://www.google.com/search",
		Params: func(query string, limit int) url.Values {
			return url.Values{"q": {query}, "hl": {"pt-BR"}, "gl": {"br"}, "num": {strconv.Itoa(limit)}}
		},
		OwnHosts:       []string{"google.com", "google.com.br", "googleusercontent.com", "gstatic.com"},
		BlockMarkers:   []string{"unusual traffic from your computer network", "id=\"captcha-form\"", "g-recaptcha"},
		ChallengePaths: []string{"/sorry/"},
		Selectors: Selectors{
			Container: []string{"div.g", "div.MjjYud", "div.tF2Cxc", "div.Gx5Zad"},
			Title:     []string{"h3", "div.vvjwJb", "a h3"},
			Snippet:   []string{"div.VwiC3b", "span.aCOpRe", "div.IsZvec", "div.BNeawe.s3v9rd"},
			Link:      []string{"a[href^='http']", "a[href^='/url?']", "a"},
		},
	}
}

// SpecFor returns the built-in spec for id.
func SpecFor(id string) (Spec, error) {
	switch id {
	case DuckDuckGo:
		return DuckDuckGoSpec(), nil
	case Bing:
		return BingSpec(), nil
	case Google:
		return GoogleSpec(), nil
	default:
		return Spec{}, fmt.Errorf("unknown engine %q", id)
	}
}

// Build constructs the engines named in ids, in order. baseURLs optionally
// overrides an engine's endpoint by id.
func Build(ids []string, baseURLs map[string]string, opts Options) ([]Engine, error) {
	if len(ids) == 0 {
		ids = DefaultOrder
	}
	out := make([]Engine, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("engine %q listed twice", id)
		}
		seen[id] = true
		spec, err := SpecFor(id)
		if err != nil {
			return nil, err
		}
		if u := baseURLs[id]; u != "" {
			spec.BaseURL = u
		}
		e, err := New(spec, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
