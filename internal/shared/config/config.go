package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis (optional; empty disables the virtual-key lookup cache)
	RedisURL string

	// AdminAPIKey protects the /admin surface when set. Empty leaves it open.
	AdminAPIKey string

	// Proxy
	DefaultProvider string
	UpstreamTimeout int // seconds

	// Key cache
	KeyCacheTTLSeconds int

	// Pricing (flat per-1K-token rates, see proxy.Pricing)
	PricePromptPer1K     float64
	PriceCompletionPer1K float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		AdminAPIKey:          getEnv("ADMIN_API_KEY", ""),
		DefaultProvider:      getEnv("DEFAULT_PROVIDER", "openai"),
		UpstreamTimeout:      getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 60),
		KeyCacheTTLSeconds:   getEnvInt("KEY_CACHE_TTL_SECONDS", 30),
		PricePromptPer1K:     getEnvFloat("PRICE_PROMPT_PER_1K", 0.0015),
		PriceCompletionPer1K: getEnvFloat("PRICE_COMPLETION_PER_1K", 0.002),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
