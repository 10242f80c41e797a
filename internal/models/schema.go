package models

import "slices"

// Provider identifies an external text-generation backend
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// BaselineProvider is used when a model's provider cannot be resolved
const BaselineProvider = ProviderAnthropic

// Category groups topics in the prompt and in settings
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SortOrder   int     `json:"sort"`
	Description *string `json:"description,omitempty"` // nil on documents written before descriptions existed
}

// Desc returns the description or an empty string
func (c Category) Desc() string {
	if c.Description == nil {
		return ""
	}
	return *c.Description
}

// Topic is a briefing subject; CategoryID references a Category
type Topic struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category"`
	PromptHint string `json:"prompt_hint,omitempty"`
}

// CoverageType is a per-ticker coverage instruction for the watchlist
type CoverageType struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	PromptInstruction string `json:"prompt"`
}

// Style controls the length of the briefing and the output token budget
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WordTarget  int    `json:"word_target"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// ModelSpec describes a selectable model. ID is the provider's API identifier.
type ModelSpec struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"name"`
	Provider    Provider `json:"provider,omitempty"`
	CostNote    string   `json:"cost_note"`
}

// PromptDefaults holds the factory prompt texts used by "reset to default"
type PromptDefaults struct {
	SystemPrompt       string `json:"system_prompt"`
	UserPromptTemplate string `json:"user_prompt_template"`
}

// AdminSchema is the editable catalog the prompt is assembled from
type AdminSchema struct {
	Categories         []Category      `json:"categories"`
	Topics             []Topic         `json:"topics"`
	CoverageTypes      []CoverageType  `json:"coverage_types"`
	Styles             []Style         `json:"styles"`
	Models             []ModelSpec     `json:"models"`
	SystemPrompt       string          `json:"system_prompt"`
	UserPromptTemplate string          `json:"user_prompt_template"`
	Defaults           *PromptDefaults `json:"defaults,omitempty"`
}

// FindCategory returns the category with the given id
func (a *AdminSchema) FindCategory(id string) (*Category, bool) {
	i := slices.IndexFunc(a.Categories, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return nil, false
	}
	return &a.Categories[i], true
}

// FindTopic returns the topic with the given id
func (a *AdminSchema) FindTopic(id string) (*Topic, bool) {
	i := slices.IndexFunc(a.Topics, func(t Topic) bool { return t.ID == id })
	if i < 0 {
		return nil, false
	}
	return &a.Topics[i], true
}

// FindCoverageType returns the coverage type with the given id
func (a *AdminSchema) FindCoverageType(id string) (*CoverageType, bool) {
	i := slices.IndexFunc(a.CoverageTypes, func(c CoverageType) bool { return c.ID == id })
	if i < 0 {
		return nil, false
	}
	return &a.CoverageTypes[i], true
}

// FindStyle returns the style with the given id
func (a *AdminSchema) FindStyle(id string) (*Style, bool) {
	i := slices.IndexFunc(a.Styles, func(s Style) bool { return s.ID == id })
	if i < 0 {
		return nil, false
	}
	return &a.Styles[i], true
}

// FindModel returns the model spec with the given id
func (a *AdminSchema) FindModel(id string) (*ModelSpec, bool) {
	i := slices.IndexFunc(a.Models, func(m ModelSpec) bool { return m.ID == id })
	if i < 0 {
		return nil, false
	}
	return &a.Models[i], true
}

// TopicsInCategory counts topics referencing the category
func (a *AdminSchema) TopicsInCategory(categoryID string) int {
	n := 0
	for _, t := range a.Topics {
		if t.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// ProviderFor returns the provider declared for a model id, or the baseline
func (a *AdminSchema) ProviderFor(modelID string) Provider {
	if a != nil {
		if m, ok := a.FindModel(modelID); ok && m.Provider != "" {
			return m.Provider
		}
	}
	return BaselineProvider
}

// Clone returns a deep copy
func (a *AdminSchema) Clone() *AdminSchema {
	if a == nil {
		return nil
	}
	out := *a
	out.Categories = make([]Category, len(a.Categories))
	for i, c := range a.Categories {
		if c.Description != nil {
			d := *c.Description
			c.Description = &d
		}
		out.Categories[i] = c
	}
	out.Topics = slices.Clone(a.Topics)
	out.CoverageTypes = slices.Clone(a.CoverageTypes)
	out.Styles = slices.Clone(a.Styles)
	out.Models = slices.Clone(a.Models)
	if a.Defaults != nil {
		d := *a.Defaults
		out.Defaults = &d
	}
	return &out
}
