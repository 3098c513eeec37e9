package providers

import "net/http"

// Provider describes one upstream LLM provider: its default endpoint and
// the authentication convention its API expects. The fixed set here
// mirrors what the gateway knows how to credential-swap for.
type Provider struct {
	Name           string
	DefaultBaseURL string
	authHeader     string
	bearer         bool
}

const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
)

var registry = map[string]Provider{
	OpenAI: {
		Name:           OpenAI,
		DefaultBaseURL: "https://api.openai.com",
		authHeader:     "Authorization",
		bearer:         true,
	},
	Anthropic: {
		Name:           Anthropic,
		DefaultBaseURL: "https://api.anthropic.com",
		authHeader:     "x-api-key",
	},
}

// Lookup returns the provider definition for a name.
func Lookup(name string) (Provider, bool) {
	p, ok := registry[name]
	return p, ok
}

// Authorize replaces the inbound client credential on h with the real
// provider credential, using this provider's header convention. The
// inbound Authorization header is always removed first so the virtual
// key never reaches the upstream.
func (p Provider) Authorize(h http.Header, apiKey string) {
	h.Del("Authorization")
	if p.bearer {
		h.Set(p.authHeader, "Bearer "+apiKey)
		return
	}
	h.Set(p.authHeader, apiKey)
}
