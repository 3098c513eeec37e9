package providers

import "strings"

// Resolver selects the upstream provider for an inbound request path.
// It is a policy function: swapping in smarter routing (headers, model
// prefixes) must not require touching the proxy pipeline.
type Resolver interface {
	Resolve(path string) string
}

// PathResolver picks a provider by substring matching on the request
// path, falling back to a designated default. This is a coarse heuristic
// carried over from the gateway's first iteration.
type PathResolver struct {
	Default string
}

// NewPathResolver creates a PathResolver with the given default provider.
func NewPathResolver(defaultProvider string) *PathResolver {
	if defaultProvider == "" {
		defaultProvider = OpenAI
	}
	return &PathResolver{Default: defaultProvider}
}

// Resolve returns exactly one provider name for a path.
func (r *PathResolver) Resolve(path string) string {
	if strings.Contains(strings.ToLower(path), Anthropic) {
		return Anthropic
	}
	return r.Default
}
