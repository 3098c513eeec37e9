package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/llmgate/llmgate/internal/shared/models"
	"github.com/llmgate/llmgate/internal/shared/redis"
)

// KeyCache is a redis-backed lookup cache for active virtual keys. It
// shaves a database round trip off the hot proxy path. Entries are keyed
// by a sha256 of the bearer token so the raw secret never appears in
// redis, and are removed explicitly on revocation.
//
// A nil *KeyCache is valid and disables caching.
type KeyCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a new key cache instance
func New(redisClient *redis.Client, ttl time.Duration) *KeyCache {
	if redisClient == nil {
		return nil
	}
	return &KeyCache{redis: redisClient, ttl: ttl}
}

// cacheKey derives the redis key for a bearer token.
func cacheKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return "vkey:" + hex.EncodeToString(hash[:])
}

// Get retrieves a cached virtual key. The second return value reports
// whether the cache held an entry; redis errors count as misses.
func (c *KeyCache) Get(ctx context.Context, token string) (*models.VirtualKey, bool) {
	if c == nil {
		return nil, false
	}

	val, err := c.redis.Get(ctx, cacheKey(token))
	if err != nil {
		return nil, false
	}

	var key models.VirtualKey
	if err := json.Unmarshal([]byte(val), &key); err != nil {
		return nil, false
	}
	return &key, true
}

// Set stores a virtual key. Failures are ignored; the cache is best-effort.
func (c *KeyCache) Set(ctx context.Context, token string, key *models.VirtualKey) {
	if c == nil {
		return
	}

	data, err := json.Marshal(key)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(token), string(data), c.ttl)
}

// Invalidate drops a cached key. Called on revocation so a revoked key
// stops authenticating immediately rather than after TTL expiry.
func (c *KeyCache) Invalidate(ctx context.Context, token string) {
	if c == nil {
		return
	}
	_ = c.redis.Del(ctx, cacheKey(token))
}
