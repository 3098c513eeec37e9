// Package proxy implements the request-proxying and usage-accounting
// pipeline: credential resolution, request rewriting, the upstream call,
// usage extraction and the ledger append.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/llmgate/llmgate/internal/gateway/metrics"
	"github.com/llmgate/llmgate/internal/gateway/providers"
	"github.com/llmgate/llmgate/internal/shared/models"
)

// apiPrefix is the fixed upstream API version prefix.
const apiPrefix = "/v1/"

// CredentialStore resolves real provider credentials.
type CredentialStore interface {
	GetCredential(ctx context.Context, provider string) (*models.ProviderCredential, error)
}

// UsageStore appends usage records to the ledger.
type UsageStore interface {
	AppendUsage(ctx context.Context, rec *models.UsageRecord) (int64, error)
}

type ctxKey int

const virtualKeyCtxKey ctxKey = 0

// WithVirtualKey stores the authenticated virtual key on a context.
func WithVirtualKey(ctx context.Context, key *models.VirtualKey) context.Context {
	return context.WithValue(ctx, virtualKeyCtxKey, key)
}

// VirtualKeyFromContext retrieves the authenticated virtual key.
func VirtualKeyFromContext(ctx context.Context) (*models.VirtualKey, bool) {
	key, ok := ctx.Value(virtualKeyCtxKey).(*models.VirtualKey)
	return key, ok
}

// Options configures an Engine.
type Options struct {
	Credentials CredentialStore
	Usage       UsageStore
	Resolver    providers.Resolver
	Pricing     Pricing
	Timeout     time.Duration

	// Transport overrides the outbound transport. Used in tests to point
	// the engine at TLS test servers.
	Transport http.RoundTripper

	Logger *logrus.Logger
}

// Engine forwards authenticated requests to upstream LLM providers and
// accounts their usage. It holds no per-request state; every request is
// handled independently.
type Engine struct {
	creds    CredentialStore
	usage    UsageStore
	resolver providers.Resolver
	pricing  Pricing
	client   *http.Client
	log      *logrus.Logger
}

// New creates a proxy engine.
func New(opts Options) *Engine {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = providers.NewPathResolver(providers.OpenAI)
	}

	return &Engine{
		creds:    opts.Credentials,
		usage:    opts.Usage,
		resolver: resolver,
		pricing:  opts.Pricing,
		client: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		log: logger,
	}
}

// ServeHTTP runs the proxy pipeline for one request. The virtual key must
// already be on the request context (set by the auth middleware); steps
// execute strictly in order and a usage record is written only after an
// upstream response has been received.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := VirtualKeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	endpoint := strings.TrimPrefix(r.URL.Path, apiPrefix)

	providerName := e.resolver.Resolve(endpoint)
	prov, ok := providers.Lookup(providerName)
	if !ok {
		writeError(w, http.StatusBadGateway, "unknown provider: "+providerName)
		return
	}

	cred, err := e.creds.GetCredential(r.Context(), providerName)
	if err != nil {
		if errors.Is(err, models.ErrCredentialNotFound) {
			writeError(w, http.StatusBadGateway, "no API key configured for provider: "+providerName)
			return
		}
		e.log.WithError(err).Error("credential lookup failed")
		writeError(w, http.StatusBadGateway, "credential lookup failed")
		return
	}

	outReq, err := buildUpstreamRequest(r, prov, cred, endpoint)
	if err != nil {
		e.log.WithError(err).Error("failed to build upstream request")
		writeError(w, http.StatusBadGateway, "invalid upstream request")
		return
	}

	resp, err := e.client.Do(outReq)
	if err != nil {
		// Network failure, timeout or client cancellation: nothing was
		// received, so nothing is accounted.
		metrics.UpstreamErrorsTotal.WithLabelValues(providerName).Inc()
		e.log.WithFields(logrus.Fields{
			"provider": providerName,
			"endpoint": endpoint,
		}).WithError(err).Warn("upstream call failed")
		writeError(w, http.StatusBadGateway, "error connecting to LLM provider")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(providerName).Inc()
		e.log.WithError(err).Warn("failed to read upstream response")
		writeError(w, http.StatusBadGateway, "error reading LLM provider response")
		return
	}

	usage, usageOK := extractUsage(resp.Header.Get("Content-Type"), body)
	cost := e.pricing.Estimate(providerName, usage)
	if !usageOK {
		e.log.WithFields(logrus.Fields{
			"provider": providerName,
			"endpoint": endpoint,
		}).Debug("no usage metadata in upstream response")
	}

	e.appendUsage(key, providerName, endpoint, usage, cost)

	metrics.ProxyRequestsTotal.WithLabelValues(providerName, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.ProxyTokensTotal.WithLabelValues(providerName, "prompt").Add(float64(usage.PromptTokens))
	metrics.ProxyTokensTotal.WithLabelValues(providerName, "completion").Add(float64(usage.CompletionTokens))

	// Forward the upstream result verbatim, whatever its status.
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		e.log.WithError(err).Debug("failed to write response to client")
	}
}

// appendUsage commits one ledger row. A response has already been
// received at this point, so failures are logged and counted but never
// surfaced to the client. The append runs on a detached context: the
// accounting of a received response must not be lost to a late client
// disconnect.
func (e *Engine) appendUsage(key *models.VirtualKey, provider, endpoint string, usage openai.Usage, cost float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &models.UsageRecord{
		VirtualKeyID:   key.ID,
		Provider:       provider,
		Endpoint:       endpoint,
		RequestTokens:  usage.PromptTokens,
		ResponseTokens: usage.CompletionTokens,
		EstimatedCost:  cost,
	}

	if _, err := e.usage.AppendUsage(ctx, rec); err != nil {
		metrics.LedgerWriteFailuresTotal.Inc()
		e.log.WithFields(logrus.Fields{
			"virtual_key_id": key.ID,
			"provider":       provider,
			"endpoint":       endpoint,
		}).WithError(err).Error("usage ledger write failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
