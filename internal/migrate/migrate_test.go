package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/storage"
	"github.com/market-briefing/internal/storage/storagetest"
	"github.com/market-briefing/pkg/logger"
)

func TestRun_InstallsFactoryDocuments(t *testing.T) {
	ctx := context.Background()
	docs := storagetest.NewDocuments(t)

	report, err := Run(ctx, docs, logger.Nop())
	require.NoError(t, err)
	assert.True(t, report.InstalledAdmin)
	assert.True(t, report.InstalledSettings)

	admin, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FactorySchema(), admin)

	settings, err := docs.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FactorySettings(), settings)
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	docs := storagetest.NewDocuments(t)

	_, err := Run(ctx, docs, logger.Nop())
	require.NoError(t, err)
	first, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)

	report, err := Run(ctx, docs, logger.Nop())
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Empty(t, report.Backfilled)

	second, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_BackfillsLegacySchema(t *testing.T) {
	ctx := context.Background()
	repo := storagetest.NewRepository(t)
	docs := storage.NewDocuments(repo, logger.Nop())

	// documents as written by the first release: no descriptions, no
	// providers, no prompt defaults, no theme
	legacyAdmin := `{
		"categories": [
			{"id": "macro_policy", "name": "Macro / Policy", "sort": 1},
			{"id": "crypto", "name": "Crypto", "sort": 4}
		],
		"topics": [{"id": "fed_policy", "name": "Fed Policy", "category": "macro_policy"}],
		"coverage_types": [],
		"styles": [{"id": "concise", "name": "Concise", "word_target": 500, "max_tokens": 1000, "description": "Bullets"}],
		"models": [
			{"id": "claude-sonnet-4-5-20250929", "name": "Sonnet", "cost_note": "Fast"},
			{"id": "local-llama", "name": "Llama", "cost_note": "Free"}
		],
		"system_prompt": "sys",
		"user_prompt_template": "{date}"
	}`
	legacySettings := `{"default_model": "claude-sonnet-4-5-20250929", "enabled_topics": ["fed_policy"], "watchlist": ["NVDA"], "enabled_coverage": [], "active_style": "concise", "custom_instructions": ""}`
	require.NoError(t, repo.Set(ctx, storage.KeyAdmin, []byte(legacyAdmin)))
	require.NoError(t, repo.Set(ctx, storage.KeySettings, []byte(legacySettings)))

	report, err := Run(ctx, docs, logger.Nop())
	require.NoError(t, err)
	assert.False(t, report.InstalledAdmin)
	assert.True(t, report.AddedGeminiModel)
	assert.True(t, report.AdminSaved)
	assert.True(t, report.SettingsSaved)

	admin, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)

	macro, ok := admin.FindCategory("macro_policy")
	require.True(t, ok)
	assert.Equal(t, models.CategoryDescription("macro_policy", ""), macro.Desc())
	crypto, ok := admin.FindCategory("crypto")
	require.True(t, ok)
	assert.Equal(t, "Crypto topics", crypto.Desc())

	sonnet, _ := admin.FindModel("claude-sonnet-4-5-20250929")
	assert.Equal(t, models.ProviderAnthropic, sonnet.Provider)
	llama, _ := admin.FindModel("local-llama")
	assert.Equal(t, models.BaselineProvider, llama.Provider)
	gemini, ok := admin.FindModel(models.DefaultGeminiModel.ID)
	require.True(t, ok)
	assert.Equal(t, models.ProviderGemini, gemini.Provider)

	require.NotNil(t, admin.Defaults)
	assert.Equal(t, models.FactoryPromptDefaults(), admin.Defaults)
	// user edits survive migration
	assert.Equal(t, "sys", admin.SystemPrompt)

	settings, err := docs.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultThemeID, settings.ThemeID)
	assert.Equal(t, []string{"fed_policy"}, settings.EnabledTopicIDs)

	again, err := Run(ctx, docs, logger.Nop())
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

func TestRun_ExistingGeminiModelNotDuplicated(t *testing.T) {
	ctx := context.Background()
	docs := storagetest.NewDocuments(t)

	admin := models.FactorySchema()
	admin.Models = []models.ModelSpec{{ID: "gemini-2.0-pro", DisplayName: "Pro", CostNote: "x"}}
	require.NoError(t, docs.SaveAdmin(ctx, admin))

	report, err := Run(ctx, docs, logger.Nop())
	require.NoError(t, err)
	assert.False(t, report.AddedGeminiModel)

	got, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, got.Models, 1)
	assert.Equal(t, models.ProviderGemini, got.Models[0].Provider)
}
