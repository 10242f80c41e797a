package source

import (
	"context"
	"sort"

	"github.com/market-briefing/internal/models"
)

// HeadlineSource defines the interface for headline feeds
type HeadlineSource interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (rss)
	Type() string

	// Fetch retrieves recent headlines from the source
	Fetch(ctx context.Context) ([]models.Headline, error)
}

// Manager manages multiple headline sources
type Manager struct {
	sources  []HeadlineSource
	maxItems int
}

// NewManager creates a new source manager. maxItems caps the merged
// result; zero means unlimited.
func NewManager(maxItems int) *Manager {
	return &Manager{
		sources:  make([]HeadlineSource, 0),
		maxItems: maxItems,
	}
}

// Register adds a source to the manager
func (m *Manager) Register(source HeadlineSource) {
	m.sources = append(m.sources, source)
}

// GetSources returns all registered sources
func (m *Manager) GetSources() []HeadlineSource {
	return m.sources
}

// FetchAll fetches headlines from all sources concurrently. The merged list
// is newest first. A failing source contributes an error and no headlines.
func (m *Manager) FetchAll(ctx context.Context) ([]models.Headline, []error) {
	type result struct {
		headlines []models.Headline
		err       error
	}

	results := make(chan result, len(m.sources))

	for _, source := range m.sources {
		go func(s HeadlineSource) {
			headlines, err := s.Fetch(ctx)
			results <- result{headlines: headlines, err: err}
		}(source)
	}

	var all []models.Headline
	var errors []error

	for range m.sources {
		r := <-results
		if r.err != nil {
			errors = append(errors, r.err)
		} else {
			all = append(all, r.headlines...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	if m.maxItems > 0 && len(all) > m.maxItems {
		all = all[:m.maxItems]
	}

	return all, errors
}
