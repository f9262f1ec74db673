package engine

import "math/rand/v2"

// Identity is the header set a request presents to an engine.
type Identity struct {
	UserAgent      string `mapstructure:"user_agent" json:"user_agent"`
	AcceptLanguage string `mapstructure:"accept_language" json:"accept_language"`
}

// DefaultIdentities is a small pool of current desktop browsers with
// Brazilian Portuguese locale preferences.
func DefaultIdentities() []Identity {
	return []Identity{
		{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		},
		{
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
			AcceptLanguage: "pt-BR,pt;q=0.9",
		},
		{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
			AcceptLanguage: "pt-BR,pt;q=0.8,en-US;q=0.5,en;q=0.3",
		},
		{
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
			AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8",
		},
		{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
			AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.8,en-US;q=0.7",
		},
	}
}

func pickIdentity(pool []Identity, intn func(int) int) Identity {
	if len(pool) == 0 {
		pool = DefaultIdentities()
	}
	if intn == nil {
		intn = rand.IntN
	}
	return pool[intn(len(pool))]
}
