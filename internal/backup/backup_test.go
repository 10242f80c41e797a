package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/history"
	"github.com/market-briefing/internal/migrate"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/storage"
	"github.com/market-briefing/internal/storage/storagetest"
	"github.com/market-briefing/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *storage.Documents, *history.Ledger) {
	t.Helper()
	docs := storagetest.NewDocuments(t)
	_, err := migrate.Run(context.Background(), docs, logger.Nop())
	require.NoError(t, err)
	ledger := history.NewLedger(docs, logger.Nop())
	return NewService(docs, ledger, logger.Nop()), docs, ledger
}

func record(id string, at time.Time) models.BriefingRecord {
	return models.BriefingRecord{ID: id, Date: at.Format(models.DateLayout), GeneratedAt: at, Response: "body " + id}
}

func TestExportSettings_Layout(t *testing.T) {
	ctx := context.Background()
	svc, docs, _ := newTestService(t)
	require.NoError(t, docs.SaveCredentials(ctx, models.Credentials{models.ProviderAnthropic: "sk-ant"}))

	raw, err := svc.ExportSettings(ctx)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Contains(t, out, KeySettings)
	assert.JSONEq(t, `"sk-ant"`, string(out[KeyAnthropicKey]))
	assert.NotContains(t, out, KeyGeminiKey)
	assert.NotContains(t, out, KeyAdmin)
	assert.NotContains(t, out, KeyHistory)
}

func TestExportSettings_NoKeyIsNull(t *testing.T) {
	svc, _, _ := newTestService(t)

	raw, err := svc.ExportSettings(context.Background())
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "null", string(out[KeyAnthropicKey]))
}

func TestImportSettings_OnlyPresentKeys(t *testing.T) {
	ctx := context.Background()
	svc, docs, _ := newTestService(t)
	require.NoError(t, docs.SaveCredentials(ctx, models.Credentials{models.ProviderAnthropic: "keep-me"}))

	keys, err := svc.ImportSettings(ctx, []byte(`{"mb_settings": {"default_model": "claude-opus-4-6", "watchlist": ["TSLA"]}, "mb_api_key": null, "mb_gemini_api_key": "g-key"}`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeySettings, KeyGeminiKey}, keys)

	settings, err := docs.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-6", settings.DefaultModelID)
	assert.Equal(t, []string{"TSLA"}, settings.Watchlist)

	creds, err := docs.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", creds[models.ProviderAnthropic])
	assert.Equal(t, "g-key", creds[models.ProviderGemini])
}

func TestImportSettings_IgnoresOtherKeys(t *testing.T) {
	ctx := context.Background()
	svc, docs, _ := newTestService(t)

	keys, err := svc.ImportSettings(ctx, []byte(`{"mb_admin": {"categories": []}}`))
	require.NoError(t, err)
	assert.Empty(t, keys)

	admin, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, admin.Categories)
}

func TestImport_MalformedLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	svc, docs, ledger := newTestService(t)
	require.NoError(t, ledger.Append(ctx, record("a", time.Now())))
	before, err := docs.LoadSettings(ctx)
	require.NoError(t, err)

	inputs := []string{
		`not json`,
		`[1, 2]`,
		`{"mb_settings": "oops"}`,
		`{"mb_api_key": 42}`,
		`{"mb_settings": {"watchlist": ["X"]}, "mb_history": {"id": "b"}}`,
	}
	for _, in := range inputs {
		_, err := svc.ImportAll(ctx, []byte(in))
		assert.ErrorIs(t, err, history.ErrImportFormat, in)
	}

	after, err := docs.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExportAllImportAll_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, docs, ledger := newTestService(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Append(ctx, record("a", now)))
	require.NoError(t, docs.SaveCredentials(ctx, models.Credentials{models.ProviderAnthropic: "sk-ant", models.ProviderGemini: "g-key"}))

	raw, err := svc.ExportAll(ctx)
	require.NoError(t, err)

	target, targetDocs, targetLedger := newTestService(t)
	require.NoError(t, targetLedger.Append(ctx, record("other", now.Add(time.Hour))))

	keys, err := target.ImportAll(ctx, raw)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyAnthropicKey, KeyGeminiKey, KeySettings, KeyAdmin, KeyHistory}, keys)

	records, err := targetLedger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "history is replaced")
	assert.Equal(t, "a", records[0].ID)

	creds, err := targetDocs.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", creds[models.ProviderAnthropic])
	assert.Equal(t, "g-key", creds[models.ProviderGemini])
}

func TestHistoryExportImport_MergeAddsNothing(t *testing.T) {
	ctx := context.Background()
	svc, _, ledger := newTestService(t)
	require.NoError(t, ledger.Append(ctx, record("a", time.Now())))

	raw, err := svc.ExportHistory(ctx)
	require.NoError(t, err)

	added, err := svc.ImportHistory(ctx, raw)
	require.NoError(t, err)
	assert.Zero(t, added)
}
