package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-briefing/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "./data/briefing.db", cfg.Database.DSN)
	assert.EqualValues(t, 5<<20, cfg.Storage.MaxBytes)
	assert.Equal(t, 5*time.Minute, cfg.AI.RequestTimeout)
	assert.True(t, cfg.AI.WebSearch)
	assert.False(t, cfg.Feeds.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Feeds.MaxAge)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: /tmp/briefing-test.db
ai:
  request_timeout: 90s
feeds:
  enabled: true
  urls:
    - name: Markets
      url: https://example.com/markets.xml
`)
	t.Setenv("BRIEFING_ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("BRIEFING_SCHEDULER_BRIEFING_CRON", "0 7 * * *")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/briefing-test.db", cfg.Database.DSN)
	assert.Equal(t, 90*time.Second, cfg.AI.RequestTimeout)
	require.Len(t, cfg.Feeds.URLs, 1)
	assert.Equal(t, "Markets", cfg.Feeds.URLs[0].Name)
	assert.Equal(t, "0 7 * * *", cfg.Scheduler.BriefingCron)
	assert.Equal(t, models.Credentials{models.ProviderAnthropic: "sk-ant-test"}, cfg.Credentials())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{DSN: "x.db"},
			Storage:  StorageConfig{MaxBytes: 1024},
			AI:       AIConfig{RequestTimeout: time.Minute},
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Feeds.Enabled = true
	assert.Error(t, cfg.Validate())
	cfg.Feeds.Pinned = []string{"CPI print at 8:30"}
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Scheduler.BriefingCron = "not a cron"
	assert.Error(t, cfg.Validate())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "BRIEFING_GEMINI_API_KEY", envName("gemini.api_key"))
}
