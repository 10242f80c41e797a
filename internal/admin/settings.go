package admin

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/market-briefing/internal/models"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)

// NormalizeTicker uppercases and validates a ticker symbol
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q (1-5 alphanumeric)", ErrInvalidTicker, raw)
	}
	return t, nil
}

// SaveSettings replaces the settings. The watchlist is normalized and
// deduplicated preserving order. Ids are stored as given; dangling ones are
// skipped when the prompt is assembled.
func (s *Service) SaveSettings(ctx context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	watchlist := make([]string, 0, len(settings.Watchlist))
	for _, raw := range settings.Watchlist {
		t, err := NormalizeTicker(raw)
		if err != nil {
			return err
		}
		if !slices.Contains(watchlist, t) {
			watchlist = append(watchlist, t)
		}
	}
	settings.Watchlist = watchlist

	if settings.DefaultModelID == "" {
		settings.DefaultModelID = models.DefaultModelID
	}
	if settings.ActiveStyleID == "" {
		settings.ActiveStyleID = models.DefaultStyleID
	}
	if settings.ThemeID == "" {
		settings.ThemeID = models.DefaultThemeID
	}
	return s.store.SaveSettings(ctx, &settings)
}

// AddTicker appends a ticker to the watchlist
func (s *Service) AddTicker(ctx context.Context, raw string) (string, error) {
	ticker, err := NormalizeTicker(raw)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		if slices.Contains(settings.Watchlist, ticker) {
			return false, fmt.Errorf("%w: %s", ErrDuplicateTicker, ticker)
		}
		settings.Watchlist = append(settings.Watchlist, ticker)
		return true, nil
	})
	return ticker, err
}

// RemoveTicker drops a ticker from the watchlist
func (s *Service) RemoveTicker(ctx context.Context, raw string) error {
	ticker := strings.ToUpper(strings.TrimSpace(raw))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		return removeID(&settings.Watchlist, ticker), nil
	})
}

// SetTopicEnabled toggles one topic in the enabled set. The topic must exist.
func (s *Service) SetTopicEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if _, ok := admin.FindTopic(id); !ok {
		return fmt.Errorf("%w: topic %q", ErrNotFound, id)
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		return setMember(&settings.EnabledTopicIDs, id, enabled), nil
	})
}

// SetCoverageEnabled toggles one coverage type in the enabled set
func (s *Service) SetCoverageEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if _, ok := admin.FindCoverageType(id); !ok {
		return fmt.Errorf("%w: coverage type %q", ErrNotFound, id)
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		return setMember(&settings.EnabledCoverageIDs, id, enabled), nil
	})
}

// SetActiveStyle selects the active style
func (s *Service) SetActiveStyle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if _, ok := admin.FindStyle(id); !ok {
		return fmt.Errorf("%w: style %q", ErrNotFound, id)
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		settings.ActiveStyleID = id
		return true, nil
	})
}

// SetDefaultModel selects the default model
func (s *Service) SetDefaultModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if _, ok := admin.FindModel(id); !ok {
		return fmt.Errorf("%w: model %q", ErrNotFound, id)
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		settings.DefaultModelID = id
		return true, nil
	})
}

// SetCustomInstructions replaces the free-text instructions
func (s *Service) SetCustomInstructions(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		settings.CustomInstructions = text
		return true, nil
	})
}

// SetCredential stores the secret for a provider
func (s *Service) SetCredential(ctx context.Context, provider models.Provider, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return fmt.Errorf("%w: secret", ErrRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return err
	}
	creds[provider] = secret
	if err := s.store.SaveCredentials(ctx, creds); err != nil {
		return err
	}
	s.log.Info().Str("provider", string(provider)).Msg("Credential saved")
	return nil
}

// Credential returns the stored secret for a provider
func (s *Service) Credential(ctx context.Context, provider models.Provider) (string, bool, error) {
	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return "", false, err
	}
	secret, ok := creds.Get(provider)
	return secret, ok, nil
}

// DeleteCredential forgets the secret for a provider
func (s *Service) DeleteCredential(ctx context.Context, provider models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return err
	}
	if _, ok := creds[provider]; !ok {
		return nil
	}
	delete(creds, provider)
	return s.store.SaveCredentials(ctx, creds)
}

// SeedCredentials stores secrets for providers that have none yet
func (s *Service) SeedCredentials(ctx context.Context, seeds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return err
	}
	changed := false
	for p, secret := range seeds {
		if _, ok := creds.Get(p); ok || secret == "" {
			continue
		}
		creds[p] = secret
		changed = true
	}
	if !changed {
		return nil
	}
	return s.store.SaveCredentials(ctx, creds)
}

func setMember(ids *[]string, id string, present bool) bool {
	if present {
		if slices.Contains(*ids, id) {
			return false
		}
		*ids = append(*ids, id)
		return true
	}
	return removeID(ids, id)
}
