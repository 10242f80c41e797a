package main

import (
	"errors"
	"strings"

	"github.com/market-briefing/internal/admin"
	"github.com/market-briefing/internal/ai"
	"github.com/market-briefing/internal/history"
	"github.com/market-briefing/internal/storage"
)

// UserMessage maps an error to a short line for the terminal
func UserMessage(err error) string {
	var credErr *ai.CredentialError
	var providerErr *ai.ProviderError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &credErr):
		p := string(credErr.Provider)
		return "No API key saved for " + p + ". Run 'briefing key set " + p + " <key>'."
	case errors.Is(err, ai.ErrCredentialMissing):
		return "No API key saved. Run 'briefing key set <provider> <key>'."
	case errors.Is(err, ai.ErrRateLimited):
		return "Rate limited by the provider. Wait a minute and try again."
	case errors.As(err, &providerErr):
		return "API error (" + string(providerErr.Provider) + "): " + providerErr.Message
	case errors.Is(err, ai.ErrUnknownProvider):
		return "The selected model's provider is not supported."
	case errors.Is(err, history.ErrImportFormat):
		return "Invalid file format."
	case errors.Is(err, history.ErrNotFound):
		return "Briefing not found."
	case errors.Is(err, storage.ErrStorageWriteFailed):
		return "Storage full, changes were not saved. Export and clear history to free space."
	case errors.Is(err, admin.ErrCategoryInUse):
		return "Cannot delete a category that still has topics. Move or delete them first."
	case errors.Is(err, admin.ErrDuplicateID),
		errors.Is(err, admin.ErrUnknownCategory),
		errors.Is(err, admin.ErrInvalidTicker),
		errors.Is(err, admin.ErrDuplicateTicker),
		errors.Is(err, admin.ErrRequired),
		errors.Is(err, admin.ErrNotFound):
		return capitalize(err.Error()) + "."
	case errors.Is(err, admin.ErrNotInitialized):
		return "Nothing is set up yet. Run 'briefing init'."
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
