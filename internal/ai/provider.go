package ai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/market-briefing/internal/models"
)

// Request is a provider-neutral generation request
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
	WebSearch    bool
}

// Usage reports token consumption when the provider returns it
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Result is the normalized provider response
type Result struct {
	Text  string
	Model string // model identifier echoed by the provider, if any
	Usage *Usage
}

// TextGenerationProvider is one backend transport
type TextGenerationProvider interface {
	Name() models.Provider
	Generate(ctx context.Context, secret string, req Request) (*Result, error)
	// ValidateCredential issues a minimal request and reports whether the
	// secret was accepted. It never returns an error.
	ValidateCredential(ctx context.Context, secret string) bool
}

// TransportOptions configures the HTTP side of a provider
type TransportOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Registry holds providers keyed by tag
type Registry struct {
	mu        sync.RWMutex
	providers map[models.Provider]TextGenerationProvider
}

// NewRegistry creates a registry with the given providers
func NewRegistry(providers ...TextGenerationProvider) *Registry {
	r := &Registry{providers: make(map[models.Provider]TextGenerationProvider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider
func (r *Registry) Register(p TextGenerationProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider for a tag
func (r *Registry) Get(name models.Provider) (TextGenerationProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered provider tags in sorted order
func (r *Registry) Names() []models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Provider, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
