package pinned

import (
	"context"
	"strings"
	"time"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/source"
	"github.com/market-briefing/pkg/logger"
)

// Source implements HeadlineSource for headlines pinned in configuration
type Source struct {
	titles []string
	log    *logger.Logger
	now    func() time.Time
}

// New creates a new pinned source. Blank titles are dropped.
func New(titles []string, log *logger.Logger) *Source {
	kept := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	return &Source{
		titles: kept,
		log:    log.WithSource("pinned", "config"),
		now:    time.Now,
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "pinned"
}

// Type returns "pinned"
func (s *Source) Type() string {
	return "pinned"
}

// Fetch returns the pinned titles stamped with the current time so they
// sort ahead of feed items
func (s *Source) Fetch(ctx context.Context) ([]models.Headline, error) {
	now := s.now()
	headlines := make([]models.Headline, 0, len(s.titles))
	for _, title := range s.titles {
		headlines = append(headlines, models.Headline{
			Title:       title,
			FeedName:    "Pinned",
			PublishedAt: now,
		})
	}

	s.log.Debug().Int("count", len(headlines)).Msg("Returned pinned headlines")
	return headlines, nil
}

// Ensure Source implements source.HeadlineSource
var _ source.HeadlineSource = (*Source)(nil)
