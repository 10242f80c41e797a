package ai

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/market-briefing/internal/models"
)

var (
	// ErrCredentialMissing indicates no secret is stored for the model's provider.
	ErrCredentialMissing = errors.New("credential missing")

	// ErrRateLimited indicates the provider answered with HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnknownProvider indicates no transport is registered for a provider tag.
	ErrUnknownProvider = errors.New("unknown provider")
)

// CredentialError reports which provider has no stored secret. It matches
// ErrCredentialMissing with errors.Is.
type CredentialError struct {
	Provider models.Provider
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, ErrCredentialMissing)
}

func (e *CredentialError) Unwrap() error {
	return ErrCredentialMissing
}

// ProviderError is a non-429 failure reported by a provider
type ProviderError struct {
	Provider   models.Provider
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// newStatusError maps an HTTP failure to ErrRateLimited or a *ProviderError.
// An empty message falls back to the numeric status.
func newStatusError(provider models.Provider, status int, message string) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	}
	if message == "" {
		message = fmt.Sprintf("API error: %d", status)
	}
	return &ProviderError{Provider: provider, StatusCode: status, Message: message}
}
