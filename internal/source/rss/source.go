package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/market-briefing/internal/config"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/source"
	"github.com/market-briefing/pkg/logger"
	"github.com/market-briefing/pkg/ratelimit"
)

// DefaultMaxAge is how far back headlines are kept
const DefaultMaxAge = 24 * time.Hour

// Source implements HeadlineSource for RSS and Atom feeds
type Source struct {
	name    string
	url     string
	maxAge  time.Duration
	parser  *gofeed.Parser
	limiter *ratelimit.MultiLimiter
	now     func() time.Time
	log     *logger.Logger
}

// Option configures a Source
type Option func(*Source)

// WithLimiter throttles fetches through the shared feeds limiter
func WithLimiter(l *ratelimit.MultiLimiter) Option {
	return func(s *Source) { s.limiter = l }
}

// WithHTTPClient overrides the client used to fetch the feed
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.parser.Client = c }
}

// WithMaxAge overrides how far back headlines are kept
func WithMaxAge(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// New creates a new RSS source for a single feed
func New(feed config.Feed, log *logger.Logger, opts ...Option) *Source {
	name := feed.Name
	if name == "" {
		name = feed.URL
	}
	s := &Source{
		name:   name,
		url:    feed.URL,
		maxAge: DefaultMaxAge,
		parser: gofeed.NewParser(),
		now:    time.Now,
		log:    log.WithSource("rss", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMultiple creates multiple RSS sources from config
func NewMultiple(cfg config.FeedsConfig, log *logger.Logger, opts ...Option) []*Source {
	opts = append([]Option{WithMaxAge(cfg.MaxAge)}, opts...)
	sources := make([]*Source, 0, len(cfg.URLs))
	for _, feed := range cfg.URLs {
		sources = append(sources, New(feed, log, opts...))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// Fetch retrieves recent headlines from the feed. Items without a
// publication date are kept; items older than the max age are dropped.
func (s *Source) Fetch(ctx context.Context) ([]models.Headline, error) {
	if s.limiter != nil && s.limiter.Has(ratelimit.LimiterFeeds) {
		if err := s.limiter.Wait(ctx, ratelimit.LimiterFeeds); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	s.log.Debug().Str("url", s.url).Msg("Fetching feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", s.name, err)
	}

	now := s.now()
	headlines := make([]models.Headline, 0, len(feed.Items))

	for _, item := range feed.Items {
		publishedAt := now
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}
		if now.Sub(publishedAt) > s.maxAge {
			continue
		}

		title := cleanText(item.Title)
		if title == "" {
			continue
		}

		headlines = append(headlines, models.Headline{
			Title:       title,
			URL:         item.Link,
			FeedName:    s.name,
			PublishedAt: publishedAt,
		})
	}

	s.log.Info().
		Int("count", len(headlines)).
		Msg("Fetched headlines")

	return headlines, nil
}

// cleanText removes HTML tags and extra whitespace
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "<br>", " ")
	text = strings.ReplaceAll(text, "<br/>", " ")
	text = strings.ReplaceAll(text, "<br />", " ")

	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
		} else if r == '>' {
			inTag = false
		} else if !inTag {
			result.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// Ensure Source implements source.HeadlineSource
var _ source.HeadlineSource = (*Source)(nil)
