package briefing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/ai"
	"github.com/market-briefing/internal/history"
	"github.com/market-briefing/internal/migrate"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/prompt"
	"github.com/market-briefing/internal/storage"
	"github.com/market-briefing/internal/storage/storagetest"
	"github.com/market-briefing/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

type fakeGenerator struct {
	calls     int
	system    string
	user      string
	modelID   string
	maxTokens int
	err       error
}

func (g *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt, modelID string, maxTokens int) (*ai.Result, error) {
	g.calls++
	g.system, g.user, g.modelID, g.maxTokens = systemPrompt, userPrompt, modelID, maxTokens
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Result{Text: fmt.Sprintf("## Briefing %d", g.calls), Usage: &ai.Usage{InputTokens: 10, OutputTokens: 20}}, nil
}

type failingRecorder struct{}

func (failingRecorder) Append(context.Context, models.BriefingRecord) error {
	return fmt.Errorf("failed to append: %w", storage.ErrStorageWriteFailed)
}

type staticHeadlines []models.Headline

func (h staticHeadlines) FetchAll(context.Context) ([]models.Headline, []error) {
	return h, []error{errors.New("one feed down")}
}

func newTestAgent(t *testing.T, gen Generator, opts ...Option) (*Agent, *storage.Documents, *history.Ledger) {
	t.Helper()
	docs := storagetest.NewDocuments(t)
	_, err := migrate.Run(context.Background(), docs, logger.Nop())
	require.NoError(t, err)
	ledger := history.NewLedger(docs, logger.Nop())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewAgent(docs, gen, ledger, logger.Nop(), opts...), docs, ledger
}

func TestGenerate_Defaults(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	agent, docs, ledger := newTestAgent(t, gen)

	res, err := agent.Generate(ctx, Input{})
	require.NoError(t, err)
	require.NoError(t, res.Warning)

	admin, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)
	settings, err := docs.LoadSettings(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultModelID, gen.modelID)
	assert.Equal(t, 1000, gen.maxTokens, "concise style budget")
	assert.Equal(t, admin.SystemPrompt, gen.system)
	assert.Equal(t, prompt.Assemble(admin, settings, fixedNow), gen.user)

	rec := res.Record
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2026-03-02", rec.Date)
	assert.Equal(t, "Sonnet", rec.ModelLabel)
	assert.False(t, rec.PromptModified)
	assert.Equal(t, "## Briefing 1", rec.Response)
	assert.Equal(t, "concise", rec.StyleID)
	assert.Equal(t, settings.EnabledTopicIDs, rec.TopicsEnabled)
	assert.Equal(t, int64(20), res.Usage.OutputTokens)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestGenerate_EditedPromptAndExplicitModel(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	agent, _, _ := newTestAgent(t, gen)

	res, err := agent.Generate(ctx, Input{Prompt: "Just the VIX please", ModelID: "gemini-2.5-flash"})
	require.NoError(t, err)

	assert.Equal(t, "Just the VIX please", gen.user)
	assert.Equal(t, "gemini-2.5-flash", gen.modelID)
	assert.True(t, res.Record.PromptModified)
	assert.Equal(t, "Gemini Flash", res.Record.ModelLabel)
}

func TestGenerate_UnknownModelLabelIsID(t *testing.T) {
	gen := &fakeGenerator{}
	agent, _, _ := newTestAgent(t, gen)

	res, err := agent.Generate(context.Background(), Input{ModelID: "claude-haiku-x"})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-x", res.Record.ModelLabel)
}

func TestGenerate_MissingStyleUsesDefaultBudget(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	agent, docs, _ := newTestAgent(t, gen)

	settings, err := docs.LoadSettings(ctx)
	require.NoError(t, err)
	settings.ActiveStyleID = "gone"
	require.NoError(t, docs.SaveSettings(ctx, settings))

	_, err = agent.Generate(ctx, Input{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxTokens, gen.maxTokens)
}

func TestGenerate_ProviderFailureAppendsNothing(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{err: fmt.Errorf("anthropic: %w", ai.ErrCredentialMissing)}
	agent, _, ledger := newTestAgent(t, gen)

	_, err := agent.Generate(ctx, Input{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrCredentialMissing)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenerate_StorageFailureIsWarning(t *testing.T) {
	docs := storagetest.NewDocuments(t)
	_, err := migrate.Run(context.Background(), docs, logger.Nop())
	require.NoError(t, err)
	agent := NewAgent(docs, &fakeGenerator{}, failingRecorder{}, logger.Nop())

	res, err := agent.Generate(context.Background(), Input{})
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.ErrorIs(t, res.Warning, storage.ErrStorageWriteFailed)
}

func TestGenerate_NotInitialized(t *testing.T) {
	agent := NewAgent(storagetest.NewDocuments(t), &fakeGenerator{}, failingRecorder{}, logger.Nop())
	_, err := agent.Generate(context.Background(), Input{})
	assert.Error(t, err)
}

func TestPreview_IncludesHeadlines(t *testing.T) {
	ctx := context.Background()
	agent, docs, _ := newTestAgent(t, &fakeGenerator{}, WithHeadlines(staticHeadlines{
		{Title: "Oil jumps 4%", FeedName: "Wire", PublishedAt: fixedNow},
	}))

	admin, err := docs.LoadAdmin(ctx)
	require.NoError(t, err)
	admin.UserPromptTemplate = "News:\n{headlines}"
	require.NoError(t, docs.SaveAdmin(ctx, admin))

	text, err := agent.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "News:\n- Oil jumps 4% (Wire)", text)
}

func TestSession_GenerateAndRegenerate(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	agent, _, ledger := newTestAgent(t, gen)
	session := NewSession(agent)

	_, err := session.Regenerate(ctx)
	assert.ErrorIs(t, err, ErrNoCurrentBriefing)

	first, err := session.Generate(ctx, Input{Prompt: "custom", ModelID: "claude-opus-4-6"})
	require.NoError(t, err)
	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, first.Record.ID, current.ID)

	second, err := session.Regenerate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, "custom", gen.user)
	assert.Equal(t, "claude-opus-4-6", gen.modelID)

	current, _ = session.Current()
	assert.Equal(t, second.Record.ID, current.ID)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	session.Close()
	_, ok = session.Current()
	assert.False(t, ok)
}

func TestSession_RegenerateIsNotModified(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	now := fixedNow
	agent, _, _ := newTestAgent(t, gen, WithClock(func() time.Time { return now }))
	session := NewSession(agent)

	first, err := session.Generate(ctx, Input{})
	require.NoError(t, err)
	assert.False(t, first.Record.PromptModified)

	now = fixedNow.Add(24 * time.Hour)
	second, err := session.Regenerate(ctx)
	require.NoError(t, err)
	assert.False(t, second.Record.PromptModified)
	assert.Equal(t, first.Record.PromptSent, second.Record.PromptSent)
	assert.Equal(t, now, second.Record.GeneratedAt)

	custom, err := session.Generate(ctx, Input{Prompt: "custom"})
	require.NoError(t, err)
	assert.True(t, custom.Record.PromptModified)

	again, err := session.Regenerate(ctx)
	require.NoError(t, err)
	assert.False(t, again.Record.PromptModified)
	assert.Equal(t, "custom", gen.user)
}
