// Package migrate brings persisted documents up to the current schema.
package migrate

import (
	"context"
	"fmt"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/pkg/logger"
)

// DocumentStore is the subset of storage.Documents the migrator needs
type DocumentStore interface {
	LoadAdmin(ctx context.Context) (*models.AdminSchema, error)
	SaveAdmin(ctx context.Context, admin *models.AdminSchema) error
	LoadSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
}

// Report describes what a run changed
type Report struct {
	InstalledAdmin    bool
	InstalledSettings bool
	Backfilled        []string
	AddedGeminiModel  bool
	AdminSaved        bool
	SettingsSaved     bool
}

// Changed reports whether anything was written
func (r Report) Changed() bool {
	return r.AdminSaved || r.SettingsSaved
}

// Run installs factory documents when absent and backfills fields added by
// later schema versions. Each document is written at most once, and only when
// it changed, so a second run is a no-op.
func Run(ctx context.Context, store DocumentStore, log *logger.Logger) (Report, error) {
	log = log.WithComponent("migrate")
	var report Report

	admin, err := store.LoadAdmin(ctx)
	if err != nil {
		return report, err
	}

	adminChanged := false
	if admin == nil {
		admin = models.FactorySchema()
		report.InstalledAdmin = true
		adminChanged = true
	} else {
		fields := backfillAdmin(admin)
		report.Backfilled = append(report.Backfilled, fields...)
		adminChanged = len(fields) > 0

		if !hasProvider(admin, models.ProviderGemini) {
			admin.Models = append(admin.Models, models.DefaultGeminiModel)
			report.AddedGeminiModel = true
			adminChanged = true
		}
	}

	if adminChanged {
		if err := store.SaveAdmin(ctx, admin); err != nil {
			return report, fmt.Errorf("failed to save migrated admin schema: %w", err)
		}
		report.AdminSaved = true
	}

	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return report, err
	}

	settingsChanged := false
	if settings == nil {
		settings = models.FactorySettings()
		report.InstalledSettings = true
		settingsChanged = true
	} else if settings.ThemeID == "" {
		settings.ThemeID = models.DefaultThemeID
		report.Backfilled = append(report.Backfilled, "settings.theme")
		settingsChanged = true
	}

	if settingsChanged {
		if err := store.SaveSettings(ctx, settings); err != nil {
			return report, fmt.Errorf("failed to save migrated settings: %w", err)
		}
		report.SettingsSaved = true
	}

	if report.Changed() {
		log.Info().
			Bool("installed_admin", report.InstalledAdmin).
			Bool("installed_settings", report.InstalledSettings).
			Bool("added_gemini_model", report.AddedGeminiModel).
			Strs("backfilled", report.Backfilled).
			Msg("Documents migrated")
	}

	return report, nil
}

func backfillAdmin(admin *models.AdminSchema) []string {
	var fields []string

	for i := range admin.Categories {
		c := &admin.Categories[i]
		if c.Description == nil {
			d := models.CategoryDescription(c.ID, c.Name)
			c.Description = &d
			fields = append(fields, "categories."+c.ID+".description")
		}
	}

	for i := range admin.Models {
		m := &admin.Models[i]
		if m.Provider == "" {
			m.Provider = models.InferProvider(m.ID)
			fields = append(fields, "models."+m.ID+".provider")
		}
	}

	if admin.Defaults == nil {
		admin.Defaults = models.FactoryPromptDefaults()
		fields = append(fields, "defaults")
	}

	return fields
}

func hasProvider(admin *models.AdminSchema, p models.Provider) bool {
	for _, m := range admin.Models {
		if m.Provider == p {
			return true
		}
	}
	return false
}
