package engine

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// UnwrapLink resolves engine redirect links to their destination:
// DuckDuckGo /l/?uddg=, Bing /ck/a?u=a1<base64url> and Google /url?q=.
// Other links are returned with a scheme added to protocol-relative forms.
func UnwrapLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	q := u.Query()
	host := strings.ToLower(u.Hostname())
	switch {
	case q.Get("uddg") != "" && (host == "" || strings.HasSuffix(host, "duckduckgo.com")):
		return q.Get("uddg")
	case strings.HasPrefix(u.Path, "/ck/a") && q.Get("u") != "":
		if dst := decodeBingTarget(q.Get("u")); dst != "" {
			return dst
		}
	case u.Path == "/url" && (host == "" || isGoogleHost(host)):
		if dst := q.Get("q"); isHTTP(dst) {
			return dst
		}
		if dst := q.Get("url"); isHTTP(dst) {
			return dst
		}
	}
	return href
}

func decodeBingTarget(v string) string {
	v = strings.TrimPrefix(v, "a1")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding} {
		b, err := enc.DecodeString(v)
		if err == nil && isHTTP(string(b)) {
			return string(b)
		}
	}
	return ""
}

func isGoogleHost(host string) bool {
	host = strings.TrimPrefix(host, "www.")
	return strings.HasPrefix(host, "google.")
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// resolve turns a raw href into an absolute destination, or "" when the link
// points back into the engine itself. Relative links left after unwrapping
// are engine navigation.
func resolve(href string, ownHosts []string) string {
	dst := UnwrapLink(href)
	if dst == "" {
		return ""
	}
	u, err := url.Parse(dst)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, own := range ownHosts {
		if host == own || strings.HasSuffix(host, "."+own) {
			return ""
		}
	}
	return u.String()
}
