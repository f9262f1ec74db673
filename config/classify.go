package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ClassifyConfig extends the built-in news and sports domain lists used to
// bucket general mentions.
type ClassifyConfig struct {
	NewsDomains   []string `mapstructure:"news_domains" json:"news_domains"`
	SportsDomains []string `mapstructure:"sports_domains" json:"sports_domains"`
}

// Normalize reduces entries to bare hosts and drops repeats, keeping the
// order they were written in.
func (c ClassifyConfig) Normalize() ClassifyConfig {
	norm := c
	norm.NewsDomains = domainList(norm.NewsDomains)
	norm.SportsDomains = domainList(norm.SportsDomains)
	return norm
}

// Validate rejects entries that are not domains and a host listed as both
// news and sports.
func (c ClassifyConfig) Validate() error {
	norm := c.Normalize()
	news := make(map[string]struct{}, len(norm.NewsDomains))
	for _, host := range norm.NewsDomains {
		if !strings.Contains(host, ".") {
			return fmt.Errorf("classify.news_domains: %q is not a domain", host)
		}
		news[host] = struct{}{}
	}
	for _, host := range norm.SportsDomains {
		if !strings.Contains(host, ".") {
			return fmt.Errorf("classify.sports_domains: %q is not a domain", host)
		}
		if _, ok := news[host]; ok {
			return fmt.Errorf("classify conflict: host %q present in both news and sports lists", host)
		}
	}
	return nil
}

func domainList(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, raw := range values {
		host := domainOf(raw)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, host)
	}
	return out
}

// domainOf accepts "ge.globo.com", "https://www.ge.globo.com/futebol" and
// similar, and returns the lower-cased host without www. or port.
func domainOf(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
