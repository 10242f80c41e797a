package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Anthropic ProviderConfig  `mapstructure:"anthropic"`
	Gemini    ProviderConfig  `mapstructure:"gemini"`
	AI        AIConfig        `mapstructure:"ai"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // SQLite file path
}

// StorageConfig holds document store limits
type StorageConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// ProviderConfig holds one text generation provider's settings.
// APIKey seeds the stored credential when none is saved yet.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AIConfig holds settings shared by every provider
type AIConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	WebSearch      bool          `mapstructure:"web_search"`
}

// FeedsConfig holds headline feed settings
type FeedsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URLs     []Feed        `mapstructure:"urls"`
	Pinned   []string      `mapstructure:"pinned"` // headlines always included, e.g. "FOMC decision at 2pm"
	MaxItems int           `mapstructure:"max_items"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// Feed represents a single RSS or Atom feed
type Feed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	BriefingCron string `mapstructure:"briefing_cron"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
	GeminiRequestsPerMinute    int `mapstructure:"gemini_requests_per_minute"`
	FeedRequestsPerMinute      int `mapstructure:"feed_requests_per_minute"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".market-briefing"))
		}
	}

	v.SetEnvPrefix("BRIEFING")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	for _, key := range []string{
		"database.dsn",
		"storage.max_bytes",
		"anthropic.api_key",
		"anthropic.base_url",
		"gemini.api_key",
		"gemini.base_url",
		"ai.request_timeout",
		"ai.web_search",
		"feeds.enabled",
		"scheduler.briefing_cron",
		"logging.level",
		"logging.format",
	} {
		_ = v.BindEnv(key, envName(key))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// envName maps a nested key to its environment variable, e.g.
// anthropic.api_key -> BRIEFING_ANTHROPIC_API_KEY
func envName(key string) string {
	return "BRIEFING_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "./data/briefing.db")
	v.SetDefault("storage.max_bytes", storage.DefaultMaxBytes)

	v.SetDefault("ai.request_timeout", 5*time.Minute)
	v.SetDefault("ai.web_search", true)

	v.SetDefault("feeds.enabled", false)
	v.SetDefault("feeds.max_items", 15)
	v.SetDefault("feeds.max_age", 24*time.Hour)

	v.SetDefault("scheduler.briefing_cron", "30 6 * * 1-5") // 6:30am on weekdays, before the open

	v.SetDefault("rate_limit.anthropic_requests_per_minute", 5)
	v.SetDefault("rate_limit.gemini_requests_per_minute", 10)
	v.SetDefault("rate_limit.feed_requests_per_minute", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Storage.MaxBytes <= 0 {
		return fmt.Errorf("storage.max_bytes must be positive")
	}
	if c.AI.RequestTimeout <= 0 {
		return fmt.Errorf("ai.request_timeout must be positive")
	}
	if c.Feeds.Enabled && len(c.Feeds.URLs) == 0 && len(c.Feeds.Pinned) == 0 {
		return fmt.Errorf("feeds.urls or feeds.pinned is required when feeds are enabled")
	}
	for i, f := range c.Feeds.URLs {
		if f.URL == "" {
			return fmt.Errorf("feeds.urls[%d].url is required", i)
		}
	}
	if c.Scheduler.BriefingCron != "" {
		if _, err := cron.ParseStandard(c.Scheduler.BriefingCron); err != nil {
			return fmt.Errorf("scheduler.briefing_cron: %w", err)
		}
	}
	return nil
}

// Credentials returns the provider secrets supplied through configuration
func (c *Config) Credentials() models.Credentials {
	creds := models.Credentials{}
	if c.Anthropic.APIKey != "" {
		creds[models.ProviderAnthropic] = c.Anthropic.APIKey
	}
	if c.Gemini.APIKey != "" {
		creds[models.ProviderGemini] = c.Gemini.APIKey
	}
	return creds
}
