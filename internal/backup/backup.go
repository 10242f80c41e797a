// Package backup moves documents in and out of JSON files. The file layout
// uses the same top-level keys as the browser build of the tool so backups
// stay interchangeable.
package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/market-briefing/internal/history"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
)

// File keys
const (
	KeySettings     = "mb_settings"
	KeyAnthropicKey = "mb_api_key"
	KeyGeminiKey    = "mb_gemini_api_key"
	KeyAdmin        = "mb_admin"
	KeyHistory      = "mb_history"
)

// Store is the document access a backup needs
type Store interface {
	LoadAdmin(ctx context.Context) (*models.AdminSchema, error)
	SaveAdmin(ctx context.Context, admin *models.AdminSchema) error
	LoadSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
	LoadCredentials(ctx context.Context) (models.Credentials, error)
	SaveCredentials(ctx context.Context, creds models.Credentials) error
}

// SettingsFile is the settings export
type SettingsFile struct {
	Settings     *models.Settings `json:"mb_settings"`
	AnthropicKey *string          `json:"mb_api_key"`
	GeminiKey    *string          `json:"mb_gemini_api_key,omitempty"`
}

// FullBackup is every document in one file
type FullBackup struct {
	AnthropicKey *string                 `json:"mb_api_key"`
	GeminiKey    *string                 `json:"mb_gemini_api_key,omitempty"`
	Settings     *models.Settings        `json:"mb_settings"`
	Admin        *models.AdminSchema     `json:"mb_admin"`
	History      []models.BriefingRecord `json:"mb_history"`
}

// Service exports and imports documents
type Service struct {
	store  Store
	ledger *history.Ledger
	log    *logger.Logger
}

// NewService creates a backup service
func NewService(store Store, ledger *history.Ledger, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		log:    log.WithComponent("backup"),
	}
}

// ExportSettings returns the settings and credentials as indented JSON
func (s *Service) ExportSettings(ctx context.Context) ([]byte, error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(SettingsFile{
		Settings:     settings,
		AnthropicKey: secret(creds, models.ProviderAnthropic),
		GeminiKey:    secret(creds, models.ProviderGemini),
	}, "", "  ")
}

// ExportHistory returns the ledger as an indented JSON array
func (s *Service) ExportHistory(ctx context.Context) ([]byte, error) {
	return s.ledger.Export(ctx)
}

// ExportAll returns every document as indented JSON
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	admin, err := s.store.LoadAdmin(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.BriefingRecord{}
	}
	return json.MarshalIndent(FullBackup{
		AnthropicKey: secret(creds, models.ProviderAnthropic),
		GeminiKey:    secret(creds, models.ProviderGemini),
		Settings:     settings,
		Admin:        admin,
		History:      records,
	}, "", "  ")
}

// ImportHistory merges records from a JSON array and returns how many were new
func (s *Service) ImportHistory(ctx context.Context, raw []byte) (int, error) {
	return s.ledger.ImportMerge(ctx, raw)
}

// ImportSettings restores the settings file keys that are present. It
// returns the keys it wrote.
func (s *Service) ImportSettings(ctx context.Context, raw []byte) ([]string, error) {
	p, err := parse(raw, KeySettings, KeyAnthropicKey, KeyGeminiKey)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p)
}

// ImportAll restores every key present in a full backup. History is
// replaced, not merged. Nothing is written unless the whole file parses.
func (s *Service) ImportAll(ctx context.Context, raw []byte) ([]string, error) {
	p, err := parse(raw, KeyAnthropicKey, KeyGeminiKey, KeySettings, KeyAdmin, KeyHistory)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p)
}

type parsed struct {
	creds    models.Credentials
	settings *models.Settings
	admin    *models.AdminSchema
	history  []models.BriefingRecord
	keys     []string
}

// parse decodes the allowed keys of a backup file. Absent, null, false and
// empty string values count as missing.
func parse(raw []byte, allowed ...string) (*parsed, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", history.ErrImportFormat)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", history.ErrImportFormat)
	}

	p := &parsed{creds: models.Credentials{}}
	for _, key := range allowed {
		v := root.Get(key)
		if !present(v) {
			continue
		}
		var err error
		switch key {
		case KeyAnthropicKey:
			err = decodeSecret(v, p.creds, models.ProviderAnthropic)
		case KeyGeminiKey:
			err = decodeSecret(v, p.creds, models.ProviderGemini)
		case KeySettings:
			err = decodeObject(v, &p.settings)
		case KeyAdmin:
			err = decodeObject(v, &p.admin)
		case KeyHistory:
			p.history, err = history.ParseRecords([]byte(v.Raw))
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		p.keys = append(p.keys, key)
	}
	return p, nil
}

func (s *Service) apply(ctx context.Context, p *parsed) ([]string, error) {
	if len(p.creds) > 0 {
		creds, err := s.store.LoadCredentials(ctx)
		if err != nil {
			return nil, err
		}
		for provider, value := range p.creds {
			creds[provider] = value
		}
		if err := s.store.SaveCredentials(ctx, creds); err != nil {
			return nil, err
		}
	}
	if p.settings != nil {
		if err := s.store.SaveSettings(ctx, p.settings); err != nil {
			return nil, err
		}
	}
	if p.admin != nil {
		if err := s.store.SaveAdmin(ctx, p.admin); err != nil {
			return nil, err
		}
	}
	if p.history != nil {
		if err := s.ledger.Replace(ctx, p.history); err != nil {
			return nil, err
		}
	}

	s.log.Info().Strs("keys", p.keys).Msg("Backup imported")
	return p.keys, nil
}

func present(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	}
	return v.Exists()
}

func decodeSecret(v gjson.Result, creds models.Credentials, provider models.Provider) error {
	if v.Type != gjson.String {
		return fmt.Errorf("%w: expected a string", history.ErrImportFormat)
	}
	creds[provider] = v.Str
	return nil
}

func decodeObject[T any](v gjson.Result, dst **T) error {
	if !v.IsObject() {
		return fmt.Errorf("%w: expected an object", history.ErrImportFormat)
	}
	var out T
	if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
		return fmt.Errorf("%w: %v", history.ErrImportFormat, err)
	}
	*dst = &out
	return nil
}

func secret(creds models.Credentials, p models.Provider) *string {
	if s, ok := creds.Get(p); ok {
		return &s
	}
	return nil
}
