package ai

import (
	"context"
	"fmt"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
	"github.com/market-briefing/pkg/ratelimit"
)

// CatalogSource supplies the model catalog and stored secrets
type CatalogSource interface {
	LoadAdmin(ctx context.Context) (*models.AdminSchema, error)
	LoadCredentials(ctx context.Context) (models.Credentials, error)
}

// Router resolves a model to its provider and dispatches a single attempt
type Router struct {
	registry  *Registry
	catalog   CatalogSource
	limiter   *ratelimit.MultiLimiter
	webSearch bool
	log       *logger.Logger
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithLimiter throttles dispatch per provider
func WithLimiter(l *ratelimit.MultiLimiter) RouterOption {
	return func(r *Router) { r.limiter = l }
}

// WithWebSearch toggles the provider's search tool (on by default)
func WithWebSearch(enabled bool) RouterOption {
	return func(r *Router) { r.webSearch = enabled }
}

// NewRouter creates a router over a provider registry
func NewRouter(registry *Registry, catalog CatalogSource, log *logger.Logger, opts ...RouterOption) *Router {
	r := &Router{
		registry:  registry,
		catalog:   catalog,
		webSearch: true,
		log:       log.WithComponent("ai.router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProviderFor resolves the provider of a model id, defaulting to the baseline
func (r *Router) ProviderFor(ctx context.Context, modelID string) (models.Provider, error) {
	admin, err := r.catalog.LoadAdmin(ctx)
	if err != nil {
		return "", err
	}
	return admin.ProviderFor(modelID), nil
}

// Generate sends one request to the model's provider. The credential is
// checked before any network I/O.
func (r *Router) Generate(ctx context.Context, systemPrompt, userPrompt, modelID string, maxTokens int) (*Result, error) {
	providerName, err := r.ProviderFor(ctx, modelID)
	if err != nil {
		return nil, err
	}

	provider, err := r.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	creds, err := r.catalog.LoadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	secret, ok := creds.Get(providerName)
	if !ok {
		return nil, &CredentialError{Provider: providerName}
	}

	if r.limiter != nil && r.limiter.Has(string(providerName)) {
		if err := r.limiter.Wait(ctx, string(providerName)); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	r.log.Info().
		Str("provider", string(providerName)).
		Str("model", modelID).
		Int("max_tokens", maxTokens).
		Msg("Dispatching generation")

	return provider.Generate(ctx, secret, Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        modelID,
		MaxTokens:    maxTokens,
		WebSearch:    r.webSearch,
	})
}

// ValidateCredential checks a secret against a provider. Unknown providers
// and any transport failure resolve to false.
func (r *Router) ValidateCredential(ctx context.Context, provider models.Provider, secret string) bool {
	p, err := r.registry.Get(provider)
	if err != nil {
		return false
	}
	return p.ValidateCredential(ctx, secret)
}
