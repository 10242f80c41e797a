package prompt

import (
	"fmt"
	"strings"

	"github.com/market-briefing/internal/models"
)

// SnapshotText summarizes the settings behind a briefing for copy and export.
// Model and style come from record when given, otherwise from settings.
func SnapshotText(admin *models.AdminSchema, settings *models.Settings, record *models.BriefingRecord) string {
	if admin == nil || settings == nil {
		return ""
	}

	modelID, styleID := settings.DefaultModelID, settings.ActiveStyleID
	if record != nil {
		modelID, styleID = record.ModelID, record.StyleID
	}

	modelName := "Unknown"
	if m, ok := admin.FindModel(modelID); ok {
		modelName = m.DisplayName
	}
	styleName := "Unknown"
	if s, ok := admin.FindStyle(styleID); ok {
		styleName = fmt.Sprintf("%s (~%d words)", s.Name, s.WordTarget)
	}

	var topics, coverage []string
	for _, t := range admin.Topics {
		if settings.TopicEnabled(t.ID) {
			topics = append(topics, t.Name)
		}
	}
	for _, c := range admin.CoverageTypes {
		if settings.CoverageEnabled(c.ID) {
			coverage = append(coverage, c.Name)
		}
	}

	var b strings.Builder
	b.WriteString("--- Settings Snapshot ---\n")
	fmt.Fprintf(&b, "Model: %s\n", modelName)
	fmt.Fprintf(&b, "Style: %s\n", styleName)
	fmt.Fprintf(&b, "Topics: %s\n", strings.Join(topics, ", "))
	fmt.Fprintf(&b, "Watchlist: %s\n", strings.Join(settings.Watchlist, ", "))
	fmt.Fprintf(&b, "Coverage: %s\n", strings.Join(coverage, ", "))
	if settings.CustomInstructions != "" {
		fmt.Fprintf(&b, "Custom Instructions: %s\n", settings.CustomInstructions)
	}
	if record != nil {
		fmt.Fprintf(&b, "Prompt Sent:\n%s\n", record.PromptSent)
	}
	return b.String()
}
