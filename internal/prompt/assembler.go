// Package prompt builds the briefing request text from the admin catalog and
// the user's settings.
package prompt

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/market-briefing/internal/models"
)

// Placeholder tokens understood by the assembler
const (
	TokenDate               = "{date}"
	TokenEnabledTopics      = "{enabled_topics}"
	TokenWatchlist          = "{watchlist}"
	TokenCoverageTypes      = "{coverage_types}"
	TokenBriefingStyle      = "{briefing_style}"
	TokenCustomInstructions = "{custom_instructions}"
	TokenTopicHints         = "{topic_hints}"
	TokenHeadlines          = "{headlines}"
)

// LongDateLayout renders {date}, e.g. "March 5, 2026"
const LongDateLayout = "January 2, 2006"

type input struct {
	admin     *models.AdminSchema
	settings  *models.Settings
	today     time.Time
	headlines []models.Headline
}

// Option customizes a single assembly
type Option func(*input)

// WithHeadlines supplies news items for the {headlines} token
func WithHeadlines(h []models.Headline) Option {
	return func(in *input) { in.headlines = h }
}

type placeholder struct {
	token   string
	resolve func(in *input) string
}

// placeholders is iterated once per assembly; every occurrence of each
// token is substituted in a single pass so resolved text is never rescanned.
var placeholders = []placeholder{
	{TokenDate, func(in *input) string { return in.today.Format(LongDateLayout) }},
	{TokenEnabledTopics, topicsBlock},
	{TokenWatchlist, func(in *input) string { return strings.Join(in.settings.Watchlist, ", ") }},
	{TokenCoverageTypes, coverageBlock},
	{TokenBriefingStyle, styleBlock},
	{TokenCustomInstructions, func(in *input) string { return in.settings.CustomInstructions }},
	{TokenTopicHints, topicHints},
	{TokenHeadlines, headlinesBlock},
}

// Tokens lists the placeholder tokens in resolution order
func Tokens() []string {
	out := make([]string, len(placeholders))
	for i, p := range placeholders {
		out[i] = p.token
	}
	return out
}

// Assemble renders the user prompt template. It never fails: a nil admin
// schema or settings yields "", and unknown tokens are left verbatim.
func Assemble(admin *models.AdminSchema, settings *models.Settings, today time.Time, opts ...Option) string {
	if admin == nil || settings == nil {
		return ""
	}
	in := &input{admin: admin, settings: settings, today: today}
	for _, opt := range opts {
		opt(in)
	}

	template := admin.UserPromptTemplate
	var pairs []string
	for _, p := range placeholders {
		if strings.Contains(template, p.token) {
			pairs = append(pairs, p.token, p.resolve(in))
		}
	}
	if len(pairs) == 0 {
		return template
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// topicsBlock renders enabled topics grouped by category in ascending sort
// order. Categories without enabled topics contribute nothing, and topics
// whose category no longer exists are skipped.
func topicsBlock(in *input) string {
	cats := slices.Clone(in.admin.Categories)
	slices.SortStableFunc(cats, func(a, b models.Category) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})

	var lines []string
	for _, cat := range cats {
		for _, t := range in.admin.Topics {
			if t.CategoryID != cat.ID || !in.settings.TopicEnabled(t.ID) {
				continue
			}
			line := "- " + t.Name
			if t.PromptHint != "" {
				line += ":\n  " + t.PromptHint
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// coverageBlock renders enabled coverage types in stored order
func coverageBlock(in *input) string {
	var lines []string
	for _, c := range in.admin.CoverageTypes {
		if in.settings.CoverageEnabled(c.ID) {
			lines = append(lines, "- "+c.Name+": "+c.PromptInstruction)
		}
	}
	return strings.Join(lines, "\n")
}

// styleBlock describes the active style, falling back to its raw id
func styleBlock(in *input) string {
	style, ok := in.admin.FindStyle(in.settings.ActiveStyleID)
	if !ok {
		return in.settings.ActiveStyleID
	}
	return fmt.Sprintf("%s (~%d words) - %s", style.Name, style.WordTarget, style.Description)
}

// topicHints joins the hints of enabled topics
func topicHints(in *input) string {
	var hints []string
	for _, t := range in.admin.Topics {
		if t.PromptHint != "" && in.settings.TopicEnabled(t.ID) {
			hints = append(hints, t.PromptHint)
		}
	}
	return strings.Join(hints, "\n")
}

func headlinesBlock(in *input) string {
	lines := make([]string, 0, len(in.headlines))
	for _, h := range in.headlines {
		line := "- " + h.Title
		if h.FeedName != "" {
			line += " (" + h.FeedName + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
