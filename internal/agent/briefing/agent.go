package briefing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/market-briefing/internal/ai"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/prompt"
	"github.com/market-briefing/pkg/logger"
)

// Catalog supplies the documents a briefing is assembled from
type Catalog interface {
	LoadAdmin(ctx context.Context) (*models.AdminSchema, error)
	LoadSettings(ctx context.Context) (*models.Settings, error)
}

// Generator sends one prompt to the provider behind a model id
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt, modelID string, maxTokens int) (*ai.Result, error)
}

// Recorder persists generated briefings
type Recorder interface {
	Append(ctx context.Context, record models.BriefingRecord) error
}

// HeadlineFetcher supplies optional headline context
type HeadlineFetcher interface {
	FetchAll(ctx context.Context) ([]models.Headline, []error)
}

// Agent turns the current catalog and settings into a briefing
type Agent struct {
	catalog   Catalog
	generator Generator
	recorder  Recorder
	headlines HeadlineFetcher
	now       func() time.Time
	newID     func() string
	log       *logger.Logger
}

// Option configures an Agent
type Option func(*Agent)

// WithHeadlines adds feed headlines to every assembled prompt
func WithHeadlines(h HeadlineFetcher) Option {
	return func(a *Agent) { a.headlines = h }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// NewAgent creates a new briefing agent
func NewAgent(catalog Catalog, generator Generator, recorder Recorder, log *logger.Logger, opts ...Option) *Agent {
	a := &Agent{
		catalog:   catalog,
		generator: generator,
		recorder:  recorder,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       log.WithComponent("briefing"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is a generation request. Empty fields fall back to the assembled
// prompt and the default model. Baseline is the prompt the sent one is
// compared against to flag edits; empty means the assembled prompt.
type Input struct {
	Prompt   string
	ModelID  string
	Baseline string
}

// Result contains the outcome of a generation. Warning is set when the
// briefing was produced but could not be saved to history.
type Result struct {
	Record  *models.BriefingRecord
	Usage   *ai.Usage
	Warning error
}

// Preview returns the prompt that would be sent right now
func (a *Agent) Preview(ctx context.Context) (string, error) {
	admin, settings, err := a.load(ctx)
	if err != nil {
		return "", err
	}
	return a.assemble(ctx, admin, settings), nil
}

// Generate sends the prompt to the model's provider and appends the
// resulting record to history. A failed provider call records nothing.
func (a *Agent) Generate(ctx context.Context, in Input) (*Result, error) {
	admin, settings, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	baseline := in.Baseline
	if baseline == "" {
		baseline = a.assemble(ctx, admin, settings)
	}
	promptText := in.Prompt
	if promptText == "" {
		promptText = baseline
	}
	modelID := in.ModelID
	if modelID == "" {
		modelID = settings.DefaultModelID
	}

	maxTokens := models.DefaultMaxTokens
	if style, ok := admin.FindStyle(settings.ActiveStyleID); ok && style.MaxTokens > 0 {
		maxTokens = style.MaxTokens
	}

	log := a.log.WithProvider(string(admin.ProviderFor(modelID)), modelID)
	log.Info().
		Int("max_tokens", maxTokens).
		Bool("prompt_modified", promptText != baseline).
		Msg("Generating briefing")

	res, err := a.generator.Generate(ctx, admin.SystemPrompt, promptText, modelID, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to generate briefing: %w", err)
	}

	label := modelID
	if m, ok := admin.FindModel(modelID); ok && m.DisplayName != "" {
		label = m.DisplayName
	}

	now := a.now()
	record := &models.BriefingRecord{
		ID:               a.newID(),
		Date:             now.UTC().Format(models.DateLayout),
		ModelID:          modelID,
		ModelLabel:       label,
		PromptSent:       promptText,
		PromptModified:   promptText != baseline,
		SystemPromptSent: admin.SystemPrompt,
		Response:         res.Text,
		GeneratedAt:      now,
		StyleID:          settings.ActiveStyleID,
		TopicsEnabled:    slices.Clone(settings.EnabledTopicIDs),
	}

	result := &Result{Record: record, Usage: res.Usage}
	if err := a.recorder.Append(ctx, *record); err != nil {
		log.WithRecordID(record.ID).Warn().Err(err).Msg("Briefing generated but not saved to history")
		result.Warning = err
	}
	return result, nil
}

// Regenerate re-sends a record's prompt to the same model as a new briefing.
// The new record is never flagged as modified.
func (a *Agent) Regenerate(ctx context.Context, record *models.BriefingRecord) (*Result, error) {
	if record == nil {
		return nil, errors.New("no briefing to regenerate")
	}
	return a.Generate(ctx, Input{
		Prompt:   record.PromptSent,
		ModelID:  record.ModelID,
		Baseline: record.PromptSent,
	})
}

func (a *Agent) load(ctx context.Context) (*models.AdminSchema, *models.Settings, error) {
	admin, err := a.catalog.LoadAdmin(ctx)
	if err != nil {
		return nil, nil, err
	}
	settings, err := a.catalog.LoadSettings(ctx)
	if err != nil {
		return nil, nil, err
	}
	if admin == nil || settings == nil {
		return nil, nil, errors.New("catalog not initialized; run init first")
	}
	return admin, settings, nil
}

func (a *Agent) assemble(ctx context.Context, admin *models.AdminSchema, settings *models.Settings) string {
	var opts []prompt.Option
	if a.headlines != nil {
		headlines, errs := a.headlines.FetchAll(ctx)
		for _, err := range errs {
			a.log.Warn().Err(err).Msg("Headline feed skipped")
		}
		opts = append(opts, prompt.WithHeadlines(headlines))
	}
	return prompt.Assemble(admin, settings, a.now(), opts...)
}
