package proxy

import (
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// extractUsage pulls the usage object out of an upstream JSON response.
// The second return value reports whether usage metadata was actually
// present; every failure mode (non-JSON content type, malformed JSON,
// missing usage object) degrades to zero counts rather than an error,
// so accounting can never fail a response that was already received.
func extractUsage(contentType string, body []byte) (openai.Usage, bool) {
	if !strings.HasPrefix(contentType, "application/json") {
		return openai.Usage{}, false
	}

	var envelope struct {
		Usage *openai.Usage `json:"usage"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Usage == nil {
		return openai.Usage{}, false
	}

	return *envelope.Usage, true
}

// Rates are per-1K-token prices.
type Rates struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

// Pricing estimates request cost from token counts. The default is a
// single flat rate; per-provider overrides can be configured without
// touching the pipeline. Real per-model price tables are intentionally
// out of scope.
type Pricing struct {
	Default     Rates
	PerProvider map[string]Rates
}

// DefaultPricing returns the flat rates used when nothing is configured.
func DefaultPricing() Pricing {
	return Pricing{Default: Rates{PromptPer1K: 0.0015, CompletionPer1K: 0.002}}
}

func (p Pricing) rates(provider string) Rates {
	if r, ok := p.PerProvider[provider]; ok {
		return r
	}
	return p.Default
}

// Estimate computes (prompt*in + completion*out) / 1000 for a provider.
func (p Pricing) Estimate(provider string, usage openai.Usage) float64 {
	r := p.rates(provider)
	return (float64(usage.PromptTokens)*r.PromptPer1K + float64(usage.CompletionTokens)*r.CompletionPer1K) / 1000
}
