package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/llmgate?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.AdminAPIKey)
	assert.Equal(t, "openai", cfg.DefaultProvider)
	assert.Equal(t, 60, cfg.UpstreamTimeout)
	assert.Equal(t, 30, cfg.KeyCacheTTLSeconds)
	assert.InDelta(t, 0.0015, cfg.PricePromptPer1K, 1e-12)
	assert.InDelta(t, 0.002, cfg.PriceCompletionPer1K, 1e-12)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/gw")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("ADMIN_API_KEY", "admin-secret")
	t.Setenv("DEFAULT_PROVIDER", "anthropic")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "120")
	t.Setenv("KEY_CACHE_TTL_SECONDS", "5")
	t.Setenv("PRICE_PROMPT_PER_1K", "0.003")
	t.Setenv("PRICE_COMPLETION_PER_1K", "0.015")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, "admin-secret", cfg.AdminAPIKey)
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.Equal(t, 120, cfg.UpstreamTimeout)
	assert.Equal(t, 5, cfg.KeyCacheTTLSeconds)
	assert.InDelta(t, 0.003, cfg.PricePromptPer1K, 1e-12)
	assert.InDelta(t, 0.015, cfg.PriceCompletionPer1K, 1e-12)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/gw")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT_SECONDS")
}

// Unparseable numeric values fall back to defaults rather than failing.
func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/gw")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "sixty")
	t.Setenv("PRICE_PROMPT_PER_1K", "cheap")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.UpstreamTimeout)
	assert.InDelta(t, 0.0015, cfg.PricePromptPer1K, 1e-12)
}
