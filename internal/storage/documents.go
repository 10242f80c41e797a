package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
)

// Documents provides typed access to the well-known documents. A document
// that fails to parse is logged and treated as absent.
type Documents struct {
	repo Repository
	log  *logger.Logger
}

// NewDocuments wraps a repository
func NewDocuments(repo Repository, log *logger.Logger) *Documents {
	return &Documents{
		repo: repo,
		log:  log.WithComponent("storage"),
	}
}

// Repository returns the underlying raw store
func (d *Documents) Repository() Repository {
	return d.repo
}

// LoadAdmin returns the admin schema, or nil if absent
func (d *Documents) LoadAdmin(ctx context.Context) (*models.AdminSchema, error) {
	var admin models.AdminSchema
	ok, err := d.load(ctx, KeyAdmin, &admin)
	if err != nil || !ok {
		return nil, err
	}
	return &admin, nil
}

// SaveAdmin persists the admin schema
func (d *Documents) SaveAdmin(ctx context.Context, admin *models.AdminSchema) error {
	return d.save(ctx, KeyAdmin, admin)
}

// LoadSettings returns the settings, or nil if absent
func (d *Documents) LoadSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	ok, err := d.load(ctx, KeySettings, &settings)
	if err != nil || !ok {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings persists the settings
func (d *Documents) SaveSettings(ctx context.Context, settings *models.Settings) error {
	return d.save(ctx, KeySettings, settings)
}

// LoadCredentials returns the stored credentials; never nil
func (d *Documents) LoadCredentials(ctx context.Context) (models.Credentials, error) {
	var creds models.Credentials
	ok, err := d.load(ctx, KeyCredentials, &creds)
	if err != nil {
		return nil, err
	}
	if !ok || creds == nil {
		return models.Credentials{}, nil
	}
	return creds, nil
}

// SaveCredentials persists the credentials
func (d *Documents) SaveCredentials(ctx context.Context, creds models.Credentials) error {
	return d.save(ctx, KeyCredentials, creds)
}

// LoadHistory returns the history records, newest first
func (d *Documents) LoadHistory(ctx context.Context) ([]models.BriefingRecord, error) {
	var records []models.BriefingRecord
	ok, err := d.load(ctx, KeyHistory, &records)
	if err != nil || !ok {
		return nil, err
	}
	return records, nil
}

// SaveHistory persists the history records
func (d *Documents) SaveHistory(ctx context.Context, records []models.BriefingRecord) error {
	if records == nil {
		records = []models.BriefingRecord{}
	}
	return d.save(ctx, KeyHistory, records)
}

// Delete removes a document
func (d *Documents) Delete(ctx context.Context, key string) error {
	if err := d.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (d *Documents) load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := d.repo.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.log.WithDocument(key).Warn().Err(err).Msg("Corrupt document, treating as absent")
		return false, nil
	}
	return true, nil
}

func (d *Documents) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := d.repo.Set(ctx, key, raw); err != nil {
		d.log.WithDocument(key).Error().Err(err).Int("bytes", len(raw)).Msg("Failed to persist document")
		return err
	}
	return nil
}
