package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/llmgate/llmgate/internal/gateway/cache"
	"github.com/llmgate/llmgate/internal/gateway/proxy"
	"github.com/llmgate/llmgate/internal/shared/models"
)

// KeyStore authenticates virtual keys.
type KeyStore interface {
	GetActiveVirtualKey(ctx context.Context, id string) (*models.VirtualKey, error)
}

type Middleware struct {
	keys     KeyStore
	cache    *cache.KeyCache
	adminKey string
	log      *logrus.Logger
}

func NewMiddleware(keys KeyStore, keyCache *cache.KeyCache, adminKey string, log *logrus.Logger) *Middleware {
	return &Middleware{
		keys:     keys,
		cache:    keyCache,
		adminKey: adminKey,
		log:      log,
	}
}

// AuthMiddleware validates the virtual key on the proxy path. It is the
// sole authorization gate: missing, unknown and revoked keys all get the
// same response so callers learn nothing about key history.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or inactive virtual API key")
			return
		}

		if key, hit := m.cache.Get(r.Context(), token); hit {
			next.ServeHTTP(w, r.WithContext(proxy.WithVirtualKey(r.Context(), key)))
			return
		}

		key, err := m.keys.GetActiveVirtualKey(r.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrKeyNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid or inactive virtual API key")
				return
			}
			m.log.WithError(err).Error("virtual key lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		m.cache.Set(r.Context(), token, key)
		next.ServeHTTP(w, r.WithContext(proxy.WithVirtualKey(r.Context(), key)))
	})
}

// AdminMiddleware gates the admin surface behind a static bearer key.
// When no admin key is configured the surface stays open.
func (m *Middleware) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.adminKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok || token != m.adminKey {
			writeError(w, http.StatusUnauthorized, "admin authorization required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware handles CORS
func (m *Middleware) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
