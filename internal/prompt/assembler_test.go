package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/models"
)

var testDay = time.Date(2026, time.March, 5, 8, 0, 0, 0, time.UTC)

func fedSchema(template string) *models.AdminSchema {
	return &models.AdminSchema{
		Categories: []models.Category{{ID: "macro", Name: "Macro", SortOrder: 1}},
		Topics: []models.Topic{
			{ID: "fed", Name: "Fed Policy", CategoryID: "macro", PromptHint: "Include FedWatch odds"},
		},
		UserPromptTemplate: template,
	}
}

func TestAssemble_FedPolicyScenario(t *testing.T) {
	admin := fedSchema("{enabled_topics}")
	settings := &models.Settings{EnabledTopicIDs: []string{"fed"}}

	assert.Equal(t, "- Fed Policy:\n  Include FedWatch odds", Assemble(admin, settings, testDay))
}

func TestAssemble_NilDocuments(t *testing.T) {
	assert.Empty(t, Assemble(nil, &models.Settings{}, testDay))
	assert.Empty(t, Assemble(fedSchema("{date}"), nil, testDay))
}

func TestAssemble_DanglingTopicIDSkipped(t *testing.T) {
	admin := fedSchema("{enabled_topics}|{topic_hints}")
	settings := &models.Settings{EnabledTopicIDs: []string{"gone", "fed", "also_gone"}}

	got := Assemble(admin, settings, testDay)
	assert.Equal(t, "- Fed Policy:\n  Include FedWatch odds|Include FedWatch odds", got)
	assert.NotContains(t, got, "gone")
}

func TestAssemble_TopicWithDeletedCategorySkipped(t *testing.T) {
	admin := fedSchema("{enabled_topics}")
	admin.Topics = append(admin.Topics, models.Topic{ID: "orphan", Name: "Orphan", CategoryID: "deleted"})
	settings := &models.Settings{EnabledTopicIDs: []string{"fed", "orphan"}}

	assert.NotContains(t, Assemble(admin, settings, testDay), "Orphan")
}

func TestAssemble_CategoriesOrderedAndEmptyOmitted(t *testing.T) {
	admin := &models.AdminSchema{
		Categories: []models.Category{
			{ID: "c3", Name: "Third", SortOrder: 3},
			{ID: "c1", Name: "First", SortOrder: 1},
			{ID: "c2", Name: "Second", SortOrder: 2},
		},
		Topics: []models.Topic{
			{ID: "t3", Name: "Gamma", CategoryID: "c3"},
			{ID: "t2", Name: "Beta", CategoryID: "c2"},
			{ID: "t1b", Name: "Alpha B", CategoryID: "c1"},
			{ID: "t1a", Name: "Alpha A", CategoryID: "c1"},
		},
		UserPromptTemplate: "{enabled_topics}",
	}
	settings := &models.Settings{EnabledTopicIDs: []string{"t1a", "t1b", "t3"}}

	// c2 has no enabled topics; topics keep stored order within a category
	assert.Equal(t, "- Alpha B\n- Alpha A\n- Gamma", Assemble(admin, settings, testDay))
}

func TestAssemble_FactoryTemplate(t *testing.T) {
	got := Assemble(models.FactorySchema(), models.FactorySettings(), testDay)

	assert.True(t, strings.HasPrefix(got, "Generate market briefing for March 5, 2026.\n"))
	assert.Contains(t, got, "Watchlist: NVDA, PLTR, AMD, MRVL, VST\n")
	assert.Contains(t, got, "Watchlist coverage: - Price-moving news: Breaking news likely to move share price >2% for these tickers\n- Upcoming earnings dates: Next earnings date and consensus EPS estimate\n")
	assert.Contains(t, got, "Style: Concise (~500 words) - Bullet-style key points\n")
	assert.True(t, strings.HasSuffix(got, "Include probability estimates where available."))

	// macro topics precede technicals, which precede earnings
	fed := strings.Index(got, "- Fed Policy & Rate Expectations")
	spx := strings.Index(got, "- S&P 500 Technical Levels")
	earn := strings.Index(got, "- Notable Earnings (upcoming & recent)")
	require.True(t, fed >= 0 && spx >= 0 && earn >= 0)
	assert.Less(t, fed, spx)
	assert.Less(t, spx, earn)
	assert.NotContains(t, got, "Geopolitical")
}

func TestAssemble_StyleFallsBackToRawID(t *testing.T) {
	admin := &models.AdminSchema{UserPromptTemplate: "Style: {briefing_style}"}
	settings := &models.Settings{ActiveStyleID: "mystery"}

	assert.Equal(t, "Style: mystery", Assemble(admin, settings, testDay))
}

func TestAssemble_ReplacesEveryOccurrence(t *testing.T) {
	admin := &models.AdminSchema{UserPromptTemplate: "{watchlist} / {watchlist}"}
	settings := &models.Settings{Watchlist: []string{"NVDA", "AMD"}}

	assert.Equal(t, "NVDA, AMD / NVDA, AMD", Assemble(admin, settings, testDay))
}

func TestAssemble_UnknownTokensLeftVerbatim(t *testing.T) {
	admin := &models.AdminSchema{UserPromptTemplate: "{date} {nope} {custom_instructions}"}
	settings := &models.Settings{}

	assert.Equal(t, "March 5, 2026 {nope} ", Assemble(admin, settings, testDay))
}

func TestAssemble_ResolvedTextNotRescanned(t *testing.T) {
	admin := &models.AdminSchema{UserPromptTemplate: "{custom_instructions}|{date}"}
	settings := &models.Settings{CustomInstructions: "mention {date} literally"}

	assert.Equal(t, "mention {date} literally|March 5, 2026", Assemble(admin, settings, testDay))
}

func TestAssemble_Headlines(t *testing.T) {
	admin := &models.AdminSchema{UserPromptTemplate: "News:\n{headlines}"}
	settings := &models.Settings{}

	got := Assemble(admin, settings, testDay, WithHeadlines([]models.Headline{
		{Title: "Fed holds rates", FeedName: "Reuters"},
		{Title: "Chips rally"},
	}))
	assert.Equal(t, "News:\n- Fed holds rates (Reuters)\n- Chips rally", got)

	assert.Equal(t, "News:\n", Assemble(admin, settings, testDay))
}

func TestSnapshotText(t *testing.T) {
	admin := models.FactorySchema()
	settings := models.FactorySettings()
	settings.EnabledTopicIDs = []string{"fed_policy", "bonds"}
	settings.EnabledCoverageIDs = []string{"analyst_ratings"}

	record := &models.BriefingRecord{
		ModelID:    "claude-opus-4-6",
		StyleID:    "deep_dive",
		PromptSent: "the prompt",
	}

	want := "--- Settings Snapshot ---\n" +
		"Model: Opus\n" +
		"Style: Deep Dive (~2000 words)\n" +
		"Topics: Fed Policy & Rate Expectations, Treasury/Bond Market\n" +
		"Watchlist: NVDA, PLTR, AMD, MRVL, VST\n" +
		"Coverage: Analyst rating changes\n" +
		"Custom Instructions: " + settings.CustomInstructions + "\n" +
		"Prompt Sent:\nthe prompt\n"
	assert.Equal(t, want, SnapshotText(admin, settings, record))

	record.ModelID = "retired-model"
	assert.Contains(t, SnapshotText(admin, settings, record), "Model: Unknown\n")

	noRecord := SnapshotText(admin, settings, nil)
	assert.Contains(t, noRecord, "Model: Sonnet\n")
	assert.NotContains(t, noRecord, "Prompt Sent")
}

func TestAssemble_TopicHintsSkipTopicsWithoutHint(t *testing.T) {
	admin := fedSchema("[{topic_hints}]")
	admin.Topics = append(admin.Topics,
		models.Topic{ID: "cpi", Name: "Inflation", CategoryID: "macro"},
		models.Topic{ID: "jobs", Name: "Jobs", CategoryID: "macro", PromptHint: "Payrolls vs consensus"},
	)
	settings := &models.Settings{EnabledTopicIDs: []string{"fed", "cpi", "jobs"}}

	assert.Equal(t, "[Include FedWatch odds\nPayrolls vs consensus]", Assemble(admin, settings, testDay))
}
