// Package admin mutates the catalog and the user's settings while keeping
// the id references between them consistent.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/market-briefing/internal/migrate"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/storage"
	"github.com/market-briefing/pkg/logger"
)

// Validation errors returned by mutations
var (
	ErrRequired        = errors.New("required field missing")
	ErrDuplicateID     = errors.New("id already exists")
	ErrUnknownCategory = errors.New("unknown category")
	ErrCategoryInUse   = errors.New("category has topics")
	ErrInvalidTicker   = errors.New("invalid ticker")
	ErrDuplicateTicker = errors.New("ticker already in watchlist")
	ErrNotFound        = errors.New("not found")
	ErrNotInitialized  = errors.New("documents not initialized")
)

// Store is the document access the service needs
type Store interface {
	LoadAdmin(ctx context.Context) (*models.AdminSchema, error)
	SaveAdmin(ctx context.Context, admin *models.AdminSchema) error
	LoadSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
	LoadCredentials(ctx context.Context) (models.Credentials, error)
	SaveCredentials(ctx context.Context, creds models.Credentials) error
	Delete(ctx context.Context, key string) error
}

// Service applies catalog and settings mutations. Every mutation reads the
// current documents, validates references, and persists immediately.
type Service struct {
	store Store
	mu    sync.Mutex
	log   *logger.Logger
}

// NewService creates an admin service
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store: store,
		log:   log.WithComponent("admin"),
	}
}

// Admin returns the current catalog
func (s *Service) Admin(ctx context.Context) (*models.AdminSchema, error) {
	admin, err := s.store.LoadAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotInitialized
	}
	return admin, nil
}

// Settings returns the current settings
func (s *Service) Settings(ctx context.Context) (*models.Settings, error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, ErrNotInitialized
	}
	return settings, nil
}

// updateAdmin runs fn over the catalog and persists it when fn succeeds
func (s *Service) updateAdmin(ctx context.Context, fn func(*models.AdminSchema) error) error {
	admin, err := s.Admin(ctx)
	if err != nil {
		return err
	}
	if err := fn(admin); err != nil {
		return err
	}
	return s.store.SaveAdmin(ctx, admin)
}

// updateSettings runs fn over the settings and persists them when fn
// reports a change
func (s *Service) updateSettings(ctx context.Context, fn func(*models.Settings) (bool, error)) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(settings)
	if err != nil || !changed {
		return err
	}
	return s.store.SaveSettings(ctx, settings)
}

// ResetEverything deletes every document and reinstalls factory defaults
func (s *Service) ResetEverything(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range storage.AllKeys {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	if _, err := migrate.Run(ctx, s.store, s.log); err != nil {
		return fmt.Errorf("failed to reinstall defaults: %w", err)
	}
	s.log.Warn().Msg("All documents reset to factory defaults")
	return nil
}
