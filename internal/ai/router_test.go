package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
	"github.com/market-briefing/pkg/ratelimit"
)

type staticCatalog struct {
	admin *models.AdminSchema
	creds models.Credentials
}

func (c staticCatalog) LoadAdmin(context.Context) (*models.AdminSchema, error) {
	return c.admin, nil
}

func (c staticCatalog) LoadCredentials(context.Context) (models.Credentials, error) {
	return c.creds, nil
}

type recordingProvider struct {
	name   models.Provider
	calls  int
	secret string
	req    Request
}

func (p *recordingProvider) Name() models.Provider { return p.name }

func (p *recordingProvider) Generate(_ context.Context, secret string, req Request) (*Result, error) {
	p.calls++
	p.secret = secret
	p.req = req
	return &Result{Text: "ok from " + string(p.name)}, nil
}

func (p *recordingProvider) ValidateCredential(_ context.Context, secret string) bool {
	return secret == "valid"
}

func TestRouter_DispatchesByModelProvider(t *testing.T) {
	anthropicP := &recordingProvider{name: models.ProviderAnthropic}
	geminiP := &recordingProvider{name: models.ProviderGemini}
	catalog := staticCatalog{
		admin: models.FactorySchema(),
		creds: models.Credentials{models.ProviderAnthropic: "a-key", models.ProviderGemini: "g-key"},
	}
	router := NewRouter(NewRegistry(anthropicP, geminiP), catalog, logger.Nop())

	res, err := router.Generate(context.Background(), "sys", "user", "gemini-2.5-flash", 1000)
	require.NoError(t, err)
	assert.Equal(t, "ok from gemini", res.Text)
	assert.Equal(t, "g-key", geminiP.secret)
	assert.Equal(t, Request{SystemPrompt: "sys", UserPrompt: "user", Model: "gemini-2.5-flash", MaxTokens: 1000, WebSearch: true}, geminiP.req)
	assert.Zero(t, anthropicP.calls)

	// unknown models fall back to the baseline provider
	res, err = router.Generate(context.Background(), "sys", "user", "not-in-catalog", 1000)
	require.NoError(t, err)
	assert.Equal(t, "ok from anthropic", res.Text)
	assert.Equal(t, "a-key", anthropicP.secret)
}

func TestRouter_CredentialMissingBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := NewRegistry(
		NewAnthropicProvider(TransportOptions{BaseURL: srv.URL}, logger.Nop()),
		NewGeminiProvider(TransportOptions{BaseURL: srv.URL}, logger.Nop()),
	)
	catalog := staticCatalog{
		admin: models.FactorySchema(),
		creds: models.Credentials{models.ProviderAnthropic: "a-key"},
	}
	router := NewRouter(registry, catalog, logger.Nop())

	_, err := router.Generate(context.Background(), "sys", "user", "gemini-2.5-flash", 100)
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Zero(t, hits.Load())
}

func TestRouter_EmptySecretIsMissing(t *testing.T) {
	p := &recordingProvider{name: models.ProviderAnthropic}
	catalog := staticCatalog{
		admin: models.FactorySchema(),
		creds: models.Credentials{models.ProviderAnthropic: ""},
	}
	router := NewRouter(NewRegistry(p), catalog, logger.Nop())

	_, err := router.Generate(context.Background(), "", "user", models.DefaultModelID, 100)
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Zero(t, p.calls)
}

func TestRouter_UnregisteredProvider(t *testing.T) {
	catalog := staticCatalog{
		admin: models.FactorySchema(),
		creds: models.Credentials{models.ProviderGemini: "g-key"},
	}
	router := NewRouter(NewRegistry(&recordingProvider{name: models.ProviderAnthropic}), catalog, logger.Nop())

	_, err := router.Generate(context.Background(), "", "user", "gemini-2.5-flash", 100)
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.False(t, router.ValidateCredential(context.Background(), models.ProviderGemini, "valid"))
}

func TestRouter_WaitsOnLimiter(t *testing.T) {
	p := &recordingProvider{name: models.ProviderAnthropic}
	catalog := staticCatalog{
		admin: models.FactorySchema(),
		creds: models.Credentials{models.ProviderAnthropic: "a-key"},
	}
	limiter := ratelimit.NewMultiLimiter()
	limiter.AddLimiter(ratelimit.LimiterAnthropic, 0.001, 1)
	router := NewRouter(NewRegistry(p), catalog, logger.Nop(), WithLimiter(limiter), WithWebSearch(false))

	_, err := router.Generate(context.Background(), "", "user", models.DefaultModelID, 100)
	require.NoError(t, err)
	assert.False(t, p.req.WebSearch)

	// the burst is spent; a cancelled context aborts the wait
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = router.Generate(ctx, "", "user", models.DefaultModelID, 100)
	assert.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestRouter_ValidateCredential(t *testing.T) {
	router := NewRouter(NewRegistry(&recordingProvider{name: models.ProviderAnthropic}), staticCatalog{}, logger.Nop())

	assert.True(t, router.ValidateCredential(context.Background(), models.ProviderAnthropic, "valid"))
	assert.False(t, router.ValidateCredential(context.Background(), models.ProviderAnthropic, "bad"))
}
