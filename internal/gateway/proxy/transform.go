package proxy

import (
	"net/http"
	"strings"

	"github.com/llmgate/llmgate/internal/gateway/providers"
	"github.com/llmgate/llmgate/internal/shared/models"
)

// hopByHopHeaders are connection-scoped and must not be forwarded.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// buildUpstreamRequest produces the outbound request for a resolved
// provider. The method and body pass through byte-for-byte; only headers
// are rewritten: the client's Authorization is replaced by the real
// provider credential and anything identifying the inbound host is
// dropped so upstream routing is not confused.
func buildUpstreamRequest(r *http.Request, prov providers.Provider, cred *models.ProviderCredential, endpoint string) (*http.Request, error) {
	base := cred.BaseURL
	if base == "" {
		base = prov.DefaultBaseURL
	}

	upstreamURL := strings.TrimSuffix(base, "/") + apiPrefix + endpoint
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, r.Body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength

	for name, values := range r.Header {
		for _, v := range values {
			out.Header.Add(name, v)
		}
	}
	for _, h := range hopByHopHeaders {
		out.Header.Del(h)
	}
	out.Header.Del("Host")

	// Credential substitution. The real key exists only on this outbound
	// request; it must never appear in responses, logs or records.
	prov.Authorize(out.Header, cred.APIKey)

	return out, nil
}

// copyHeaders forwards upstream response headers to the client, minus
// connection-scoped ones.
func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
}
