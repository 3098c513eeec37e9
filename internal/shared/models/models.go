package models

import (
	"errors"
	"time"
)

// ErrKeyNotFound is returned when no active virtual key matches a lookup.
// Unknown and revoked keys are deliberately indistinguishable.
var ErrKeyNotFound = errors.New("virtual key not found")

// ErrCredentialNotFound is returned when no credential is configured for a provider.
var ErrCredentialNotFound = errors.New("provider credential not found")

// VirtualKey is a gateway-issued bearer credential scoped to a project.
// The ID doubles as the secret presented by clients; it is never sent upstream.
type VirtualKey struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"project_name"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

// ProviderCredential maps a provider name to its real API key and an
// optional base URL override.
type ProviderCredential struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
}

// UsageRecord is one append-only accounting entry for a proxied call.
// It outlives revocation of the key it references.
type UsageRecord struct {
	ID             int64     `json:"id"`
	VirtualKeyID   string    `json:"virtual_key_id"`
	Provider       string    `json:"provider"`
	Endpoint       string    `json:"endpoint"`
	RequestTokens  int       `json:"request_tokens"`
	ResponseTokens int       `json:"response_tokens"`
	EstimatedCost  float64   `json:"estimated_cost"`
	Timestamp      time.Time `json:"timestamp"`
}

// UsageStats aggregates the usage ledger for one virtual key.
type UsageStats struct {
	VirtualKeyID  string  `json:"virtual_key_id"`
	ProjectName   string  `json:"project_name"`
	TotalRequests int64   `json:"total_requests"`
	TotalTokens   int64   `json:"total_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}
