package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/llmgate/llmgate/internal/gateway/cache"
	"github.com/llmgate/llmgate/internal/gateway/providers"
	"github.com/llmgate/llmgate/internal/shared/models"
)

// AdminStore is the persistence surface the admin API needs.
type AdminStore interface {
	CreateVirtualKey(ctx context.Context, projectName string) (*models.VirtualKey, error)
	ListVirtualKeys(ctx context.Context) ([]models.VirtualKey, error)
	RevokeVirtualKey(ctx context.Context, id string) error
	UpsertCredential(ctx context.Context, cred models.ProviderCredential) error
	ListCredentials(ctx context.Context) ([]models.ProviderCredential, error)
	UsageStats(ctx context.Context) ([]models.UsageStats, error)
}

type AdminHandler struct {
	store AdminStore
	cache *cache.KeyCache
	log   *logrus.Logger
}

func NewAdminHandler(store AdminStore, keyCache *cache.KeyCache, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		store: store,
		cache: keyCache,
		log:   log,
	}
}

type createVirtualKeyRequest struct {
	ProjectName string `json:"project_name"`
}

// CreateVirtualKey handles POST /admin/virtual-keys
func (h *AdminHandler) CreateVirtualKey(w http.ResponseWriter, r *http.Request) {
	var req createVirtualKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectName == "" {
		writeError(w, http.StatusBadRequest, "project_name is required")
		return
	}

	key, err := h.store.CreateVirtualKey(r.Context(), req.ProjectName)
	if err != nil {
		h.log.WithError(err).Error("failed to create virtual key")
		writeError(w, http.StatusInternalServerError, "failed to create virtual key")
		return
	}

	h.log.WithFields(logrus.Fields{
		"virtual_key_id": key.ID,
		"project_name":   key.ProjectName,
	}).Info("virtual key created")

	writeJSON(w, http.StatusOK, key)
}

// ListVirtualKeys handles GET /admin/virtual-keys
func (h *AdminHandler) ListVirtualKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListVirtualKeys(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to list virtual keys")
		writeError(w, http.StatusInternalServerError, "failed to list virtual keys")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// RevokeVirtualKey handles DELETE /admin/virtual-keys/{id}. Revocation is
// a soft delete; the id keeps existing for historical usage records.
func (h *AdminHandler) RevokeVirtualKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.RevokeVirtualKey(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "virtual key not found")
			return
		}
		h.log.WithError(err).Error("failed to revoke virtual key")
		writeError(w, http.StatusInternalServerError, "failed to revoke virtual key")
		return
	}

	// Drop any cached copy so the key stops authenticating now, not at
	// cache TTL expiry.
	h.cache.Invalidate(r.Context(), id)

	h.log.WithField("virtual_key_id", id).Info("virtual key revoked")
	writeJSON(w, http.StatusOK, map[string]string{"message": "virtual key revoked successfully"})
}

type upsertCredentialRequest struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// UpsertProviderKey handles PUT /admin/provider-keys/{provider}
func (h *AdminHandler) UpsertProviderKey(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, ok := providers.Lookup(provider); !ok {
		writeError(w, http.StatusBadRequest, "unknown provider: "+provider)
		return
	}

	var req upsertCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	cred := models.ProviderCredential{
		Provider: provider,
		APIKey:   req.APIKey,
		BaseURL:  req.BaseURL,
	}
	if err := h.store.UpsertCredential(r.Context(), cred); err != nil {
		h.log.WithError(err).Error("failed to upsert provider credential")
		writeError(w, http.StatusInternalServerError, "failed to store provider credential")
		return
	}

	h.log.WithField("provider", provider).Info("provider credential updated")
	writeJSON(w, http.StatusOK, map[string]string{"message": "credential for " + provider + " updated successfully"})
}

type maskedCredential struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ListProviderKeys handles GET /admin/provider-keys. Keys are masked;
// the real secret never leaves the gateway.
func (h *AdminHandler) ListProviderKeys(w http.ResponseWriter, r *http.Request) {
	creds, err := h.store.ListCredentials(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to list provider credentials")
		writeError(w, http.StatusInternalServerError, "failed to list provider credentials")
		return
	}

	masked := make([]maskedCredential, 0, len(creds))
	for _, c := range creds {
		masked = append(masked, maskedCredential{
			Provider: c.Provider,
			APIKey:   maskAPIKey(c.APIKey),
			BaseURL:  c.BaseURL,
		})
	}
	writeJSON(w, http.StatusOK, masked)
}

// UsageStats handles GET /admin/usage-stats
func (h *AdminHandler) UsageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.UsageStats(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to aggregate usage stats")
		writeError(w, http.StatusInternalServerError, "failed to aggregate usage stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func maskAPIKey(key string) string {
	if len(key) > 8 {
		return key[:8] + "..."
	}
	return "***"
}
