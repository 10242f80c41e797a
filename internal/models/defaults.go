package models

import "strings"

const factorySystemPrompt = "You are a senior macro strategist preparing a daily market briefing for a trader focused on S&P 500 and AI infrastructure equities.\n\n" +
	"Rules:\n" +
	"- Distinguish confirmed data from forecasts/estimates\n" +
	"- Include probability estimates where available (e.g., CME FedWatch)\n" +
	"- Prioritize actionable catalysts\n" +
	"- Note source for key data points\n" +
	"- Flag anything that changed since yesterday"

const factoryUserPromptTemplate = "Generate market briefing for {date}.\n" +
	"Cover the following topics:\n" +
	"{enabled_topics}\n" +
	"Watchlist: {watchlist}\n" +
	"Watchlist coverage: {coverage_types}\n" +
	"Style: {briefing_style}\n" +
	"{custom_instructions}"

const (
	// DefaultModelID is the factory default model
	DefaultModelID = "claude-sonnet-4-5-20250929"
	// DefaultStyleID is used when the active style is deleted and none remain
	DefaultStyleID = "concise"
	// DefaultThemeID is backfilled into settings written before themes existed
	DefaultThemeID = "light"
	// DefaultMaxTokens is used when the active style cannot be resolved
	DefaultMaxTokens = 2000
)

// DefaultGeminiModel is appended to schemas that carry no Gemini model
var DefaultGeminiModel = ModelSpec{
	ID:          "gemini-2.5-flash",
	DisplayName: "Gemini Flash",
	Provider:    ProviderGemini,
	CostNote:    "Fast, low cost, Google Search grounding",
}

var categoryDescriptions = map[string]string{
	"macro_policy":      "Central banks, rates, economic data and geopolitics",
	"market_technicals": "Index levels, volatility, breadth and fund flows",
	"company_earnings":  "Earnings, insider activity, buybacks and IPOs",
}

// CategoryDescription returns the default description for a category id,
// falling back to "<name> topics" for ids without a known description.
func CategoryDescription(id, name string) string {
	if d, ok := categoryDescriptions[id]; ok {
		return d
	}
	return name + " topics"
}

// InferProvider derives a provider from the model id naming convention
func InferProvider(modelID string) Provider {
	switch {
	case strings.HasPrefix(modelID, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(modelID, "claude"):
		return ProviderAnthropic
	default:
		return BaselineProvider
	}
}

func strPtr(s string) *string { return &s }

// FactorySchema returns a fresh copy of the built-in catalog
func FactorySchema() *AdminSchema {
	return &AdminSchema{
		Categories: []Category{
			{ID: "macro_policy", Name: "Macro / Policy", SortOrder: 1, Description: strPtr(categoryDescriptions["macro_policy"])},
			{ID: "market_technicals", Name: "Market / Technicals", SortOrder: 2, Description: strPtr(categoryDescriptions["market_technicals"])},
			{ID: "company_earnings", Name: "Company / Earnings", SortOrder: 3, Description: strPtr(categoryDescriptions["company_earnings"])},
		},
		Topics: []Topic{
			{ID: "fed_policy", Name: "Fed Policy & Rate Expectations", CategoryID: "macro_policy", PromptHint: "Include CME FedWatch probabilities, next FOMC date, and recent Fed speaker commentary"},
			{ID: "economic_calendar", Name: "Economic Calendar & Data Releases", CategoryID: "macro_policy", PromptHint: "List upcoming releases this week with expected vs prior values"},
			{ID: "geopolitical", Name: "Geopolitical Events", CategoryID: "macro_policy", PromptHint: "Major geopolitical developments affecting global markets"},
			{ID: "bonds", Name: "Treasury/Bond Market", CategoryID: "macro_policy", PromptHint: "10Y yield level, yield curve shape, recent auction results"},
			{ID: "sp500_technicals", Name: "S&P 500 Technical Levels", CategoryID: "market_technicals", PromptHint: "Current level, key support/resistance, moving averages, recent breakouts or breakdowns"},
			{ID: "vix_sentiment", Name: "VIX / Sentiment Indicators", CategoryID: "market_technicals", PromptHint: "VIX level and trend, put/call ratio, AAII sentiment survey, fear/greed index"},
			{ID: "sector_rotation", Name: "Sector Rotation / Fund Flows", CategoryID: "market_technicals", PromptHint: "Leading/lagging sectors, notable ETF inflows/outflows, rotation trends"},
			{ID: "market_breadth", Name: "Market Breadth", CategoryID: "market_technicals", PromptHint: "Advance/decline ratio, new highs vs new lows, percentage of stocks above 200-day MA"},
			{ID: "earnings_notable", Name: "Notable Earnings (upcoming & recent)", CategoryID: "company_earnings", PromptHint: "Major earnings reports this week with consensus estimates and recent notable beats/misses"},
			{ID: "insider_trading", Name: "Insider Trading / Buybacks", CategoryID: "company_earnings", PromptHint: "Notable insider buys/sells and major corporate buyback announcements"},
			{ID: "ipo_calendar", Name: "IPO Calendar", CategoryID: "company_earnings", PromptHint: "Upcoming IPOs and recent IPO performance"},
		},
		CoverageTypes: []CoverageType{
			{ID: "price_moving_news", Name: "Price-moving news", PromptInstruction: "Breaking news likely to move share price >2% for these tickers"},
			{ID: "upcoming_earnings", Name: "Upcoming earnings dates", PromptInstruction: "Next earnings date and consensus EPS estimate"},
			{ID: "analyst_ratings", Name: "Analyst rating changes", PromptInstruction: "Recent analyst upgrades/downgrades and price target changes"},
			{ID: "options_unusual", Name: "Options unusual activity", PromptInstruction: "Notable unusual options activity or volume spikes"},
		},
		Styles: []Style{
			{ID: "concise", Name: "Concise", WordTarget: 500, MaxTokens: 1000, Description: "Bullet-style key points"},
			{ID: "standard", Name: "Standard", WordTarget: 1000, MaxTokens: 2000, Description: "Structured sections"},
			{ID: "deep_dive", Name: "Deep Dive", WordTarget: 2000, MaxTokens: 3000, Description: "Full analysis"},
		},
		Models: []ModelSpec{
			{ID: "claude-sonnet-4-5-20250929", DisplayName: "Sonnet", Provider: ProviderAnthropic, CostNote: "Fast, ~$0.05/run"},
			{ID: "claude-opus-4-6", DisplayName: "Opus", Provider: ProviderAnthropic, CostNote: "Deep synthesis, ~$0.30/run"},
			DefaultGeminiModel,
		},
		SystemPrompt:       factorySystemPrompt,
		UserPromptTemplate: factoryUserPromptTemplate,
		Defaults:           FactoryPromptDefaults(),
	}
}

// FactoryPromptDefaults returns the built-in prompt texts
func FactoryPromptDefaults() *PromptDefaults {
	return &PromptDefaults{
		SystemPrompt:       factorySystemPrompt,
		UserPromptTemplate: factoryUserPromptTemplate,
	}
}

// FactorySettings returns a fresh copy of the built-in settings
func FactorySettings() *Settings {
	return &Settings{
		DefaultModelID:     DefaultModelID,
		EnabledTopicIDs:    []string{"fed_policy", "economic_calendar", "sp500_technicals", "vix_sentiment", "sector_rotation", "earnings_notable"},
		Watchlist:          []string{"NVDA", "PLTR", "AMD", "MRVL", "VST"},
		EnabledCoverageIDs: []string{"price_moving_news", "upcoming_earnings"},
		ActiveStyleID:      DefaultStyleID,
		CustomInstructions: "Focus on actionable catalysts. Distinguish confirmed data from forecasts. Include probability estimates where available.",
		ThemeID:            DefaultThemeID,
	}
}
