// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/market-briefing/internal/admin"
	"github.com/market-briefing/internal/agent/briefing"
	"github.com/market-briefing/internal/ai"
	"github.com/market-briefing/internal/backup"
	"github.com/market-briefing/internal/config"
	"github.com/market-briefing/internal/history"
	"github.com/market-briefing/internal/migrate"
	"github.com/market-briefing/internal/source"
	"github.com/market-briefing/internal/source/pinned"
	"github.com/market-briefing/internal/source/rss"
	"github.com/market-briefing/internal/storage"
	"github.com/market-briefing/internal/storage/sqlite"
	"github.com/market-briefing/pkg/logger"
	"github.com/market-briefing/pkg/ratelimit"
)

// App holds every long-lived component
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Repo    storage.Repository
	Docs    *storage.Documents
	Admin   *admin.Service
	Ledger  *history.Ledger
	Router  *ai.Router
	Agent   *briefing.Agent
	Session *briefing.Session
	Backup  *backup.Service
}

// New loads configuration and opens the application
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	return Open(ctx, cfg, log)
}

// Open builds the application from a loaded configuration. Documents are
// migrated and configured credentials seeded before it returns.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	repo, err := sqlite.New(cfg.Database.DSN, sqlite.WithMaxBytes(cfg.Storage.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repo.Migrate(); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	docs := storage.NewDocuments(repo, log)
	if _, err := migrate.Run(ctx, docs, log); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to migrate documents: %w", err)
	}

	adminSvc := admin.NewService(docs, log)
	if err := adminSvc.SeedCredentials(ctx, cfg.Credentials()); err != nil {
		log.Warn().Err(err).Msg("Failed to seed credentials from config")
	}

	limiter := ratelimit.NewDefaultLimiter(ratelimit.Limits{
		AnthropicPerMinute: cfg.RateLimit.AnthropicRequestsPerMinute,
		GeminiPerMinute:    cfg.RateLimit.GeminiRequestsPerMinute,
		FeedsPerMinute:     cfg.RateLimit.FeedRequestsPerMinute,
	})

	httpClient := &http.Client{Timeout: cfg.AI.RequestTimeout}
	registry := ai.NewRegistry(
		ai.NewAnthropicProvider(ai.TransportOptions{BaseURL: cfg.Anthropic.BaseURL, HTTPClient: httpClient}, log),
		ai.NewGeminiProvider(ai.TransportOptions{BaseURL: cfg.Gemini.BaseURL, HTTPClient: httpClient}, log),
	)
	router := ai.NewRouter(registry, docs, log,
		ai.WithLimiter(limiter),
		ai.WithWebSearch(cfg.AI.WebSearch),
	)

	ledger := history.NewLedger(docs, log)

	var agentOpts []briefing.Option
	if cfg.Feeds.Enabled {
		manager := source.NewManager(cfg.Feeds.MaxItems)
		for _, src := range rss.NewMultiple(cfg.Feeds, log, rss.WithLimiter(limiter)) {
			manager.Register(src)
		}
		if len(cfg.Feeds.Pinned) > 0 {
			manager.Register(pinned.New(cfg.Feeds.Pinned, log))
		}
		agentOpts = append(agentOpts, briefing.WithHeadlines(manager))
		log.Info().Int("feeds", len(cfg.Feeds.URLs)).Msg("Headline feeds enabled")
	}
	agent := briefing.NewAgent(docs, router, ledger, log, agentOpts...)

	return &App{
		Config:  cfg,
		Log:     log,
		Repo:    repo,
		Docs:    docs,
		Admin:   adminSvc,
		Ledger:  ledger,
		Router:  router,
		Agent:   agent,
		Session: briefing.NewSession(agent),
		Backup:  backup.NewService(docs, ledger, log),
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.Repo.Close()
}
