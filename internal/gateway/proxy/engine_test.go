package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/llmgate/internal/gateway/providers"
	"github.com/llmgate/llmgate/internal/shared/models"
)

type fakeCredStore struct {
	creds map[string]models.ProviderCredential
}

func (f *fakeCredStore) GetCredential(_ context.Context, provider string) (*models.ProviderCredential, error) {
	if c, ok := f.creds[provider]; ok {
		return &c, nil
	}
	return nil, models.ErrCredentialNotFound
}

type fakeLedger struct {
	mu      sync.Mutex
	records []models.UsageRecord
	nextID  int64
	failErr error
}

func (f *fakeLedger) AppendUsage(_ context.Context, rec *models.UsageRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return 0, f.failErr
	}
	f.nextID++
	stored := *rec
	stored.ID = f.nextID
	stored.Timestamp = time.Now()
	f.records = append(f.records, stored)
	return f.nextID, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeLedger) last() models.UsageRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

func testKey() *models.VirtualKey {
	return &models.VirtualKey{
		ID:          "vk-test-1234",
		ProjectName: "demo",
		CreatedAt:   time.Now(),
		IsActive:    true,
	}
}

func newTestEngine(upstreamURL string, ledger *fakeLedger) *Engine {
	creds := &fakeCredStore{creds: map[string]models.ProviderCredential{
		providers.OpenAI:    {Provider: providers.OpenAI, APIKey: "sk-real-openai", BaseURL: upstreamURL},
		providers.Anthropic: {Provider: providers.Anthropic, APIKey: "sk-real-anthropic", BaseURL: upstreamURL},
	}}
	return New(Options{
		Credentials: creds,
		Usage:       ledger,
		Resolver:    providers.NewPathResolver(providers.OpenAI),
		Pricing:     DefaultPricing(),
		Timeout:     5 * time.Second,
	})
}

func proxyRequest(t *testing.T, engine *Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer vk-test-1234")
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(WithVirtualKey(req.Context(), testKey()))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestEngine_ForwardsAndRecordsUsage(t *testing.T) {
	var receivedAuth, receivedPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		receivedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","usage":{"prompt_tokens":10,"completion_tokens":20,"total_tokens":30}}`))
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstream.URL, ledger)

	w := proxyRequest(t, engine, "POST", "/v1/chat/completions", `{"model":"gpt-4o"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cmpl-1"`)

	// Credential substitution: real key out, virtual key never forwarded.
	assert.Equal(t, "Bearer sk-real-openai", receivedAuth)
	assert.Equal(t, "/v1/chat/completions", receivedPath)

	require.Equal(t, 1, ledger.count())
	rec := ledger.last()
	assert.Equal(t, "vk-test-1234", rec.VirtualKeyID)
	assert.Equal(t, providers.OpenAI, rec.Provider)
	assert.Equal(t, "chat/completions", rec.Endpoint)
	assert.Equal(t, 10, rec.RequestTokens)
	assert.Equal(t, 20, rec.ResponseTokens)
	assert.InDelta(t, (10*0.0015+20*0.002)/1000, rec.EstimatedCost, 1e-12)
}

func TestEngine_AnthropicCredentialConvention(t *testing.T) {
	var receivedAPIKey, receivedAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAPIKey = r.Header.Get("x-api-key")
		receivedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"usage":{"prompt_tokens":5,"completion_tokens":5}}`))
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstream.URL, ledger)

	w := proxyRequest(t, engine, "POST", "/v1/anthropic/messages", `{"model":"claude"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sk-real-anthropic", receivedAPIKey)
	// Anthropic uses x-api-key only; the client's bearer token must not
	// leak through as Authorization.
	assert.Empty(t, receivedAuth)

	require.Equal(t, 1, ledger.count())
	assert.Equal(t, providers.Anthropic, ledger.last().Provider)
}

func TestEngine_ProviderErrorStillRecorded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstream.URL, ledger)

	w := proxyRequest(t, engine, "POST", "/v1/chat/completions", `{}`)

	// Upstream application errors are forwarded uninterpreted.
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":{"message":"rate limited"}}`, w.Body.String())

	require.Equal(t, 1, ledger.count())
	rec := ledger.last()
	assert.Zero(t, rec.RequestTokens)
	assert.Zero(t, rec.ResponseTokens)
	assert.Zero(t, rec.EstimatedCost)
}

func TestEngine_NonJSONBodyForwardedVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("plain text, not json"))
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstream.URL, ledger)

	w := proxyRequest(t, engine, "GET", "/v1/models", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "plain text, not json", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))

	// Unparseable usage degrades to a zero-valued record, not an error.
	require.Equal(t, 1, ledger.count())
	rec := ledger.last()
	assert.Zero(t, rec.RequestTokens)
	assert.Zero(t, rec.ResponseTokens)
	assert.Zero(t, rec.EstimatedCost)
}

func TestEngine_UpstreamDownWritesNoRecord(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstreamURL := upstream.URL
	upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstreamURL, ledger)

	w := proxyRequest(t, engine, "POST", "/v1/chat/completions", `{}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 0, ledger.count())
}

func TestEngine_MissingCredentialAbortsBeforeUpstream(t *testing.T) {
	upstreamCalled := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalled = true
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := New(Options{
		Credentials: &fakeCredStore{creds: map[string]models.ProviderCredential{}},
		Usage:       ledger,
		Resolver:    providers.NewPathResolver(providers.OpenAI),
		Pricing:     DefaultPricing(),
		Timeout:     5 * time.Second,
	})

	w := proxyRequest(t, engine, "POST", "/v1/chat/completions", `{}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "no API key configured")
	assert.False(t, upstreamCalled)
	assert.Equal(t, 0, ledger.count())
}

func TestEngine_ClientCancellationWritesNoRecord(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstream.URL, ledger)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(`{}`))
	req = req.WithContext(WithVirtualKey(ctx, testKey()))
	cancel()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 0, ledger.count())
}

func TestEngine_LedgerFailureNeverReachesClient(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"usage":{"prompt_tokens":1,"completion_tokens":1}}`))
	}))
	defer upstream.Close()

	ledger := &fakeLedger{failErr: context.DeadlineExceeded}
	engine := newTestEngine(upstream.URL, ledger)

	w := proxyRequest(t, engine, "POST", "/v1/chat/completions", `{}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "usage")
}

func TestEngine_MissingVirtualKeyRejected(t *testing.T) {
	ledger := &fakeLedger{}
	engine := newTestEngine("http://localhost:0", ledger)

	req := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, ledger.count())
}

func TestEngine_QueryStringForwarded(t *testing.T) {
	var receivedQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	ledger := &fakeLedger{}
	engine := newTestEngine(upstream.URL, ledger)

	w := proxyRequest(t, engine, "GET", "/v1/models?limit=5&after=m1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "limit=5&after=m1", receivedQuery)
}
