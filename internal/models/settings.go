package models

import "slices"

// Settings is the user's selection over the admin catalog
type Settings struct {
	DefaultModelID     string   `json:"default_model"`
	EnabledTopicIDs    []string `json:"enabled_topics"`
	Watchlist          []string `json:"watchlist"`
	EnabledCoverageIDs []string `json:"enabled_coverage"`
	ActiveStyleID      string   `json:"active_style"`
	CustomInstructions string   `json:"custom_instructions"`
	ThemeID            string   `json:"theme,omitempty"`
}

// TopicEnabled reports whether the topic id is selected
func (s *Settings) TopicEnabled(id string) bool {
	return slices.Contains(s.EnabledTopicIDs, id)
}

// CoverageEnabled reports whether the coverage type id is selected
func (s *Settings) CoverageEnabled(id string) bool {
	return slices.Contains(s.EnabledCoverageIDs, id)
}

// Clone returns a deep copy
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	out.EnabledTopicIDs = slices.Clone(s.EnabledTopicIDs)
	out.Watchlist = slices.Clone(s.Watchlist)
	out.EnabledCoverageIDs = slices.Clone(s.EnabledCoverageIDs)
	return &out
}

// Credentials maps a provider to its API secret. A missing entry means the
// provider is unusable.
type Credentials map[Provider]string

// Get returns the secret for a provider, if any
func (c Credentials) Get(p Provider) (string, bool) {
	secret, ok := c[p]
	if !ok || secret == "" {
		return "", false
	}
	return secret, true
}
