package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PRIMARY_PROVIDER", "PRIMARY_API_KEY", "PRIMARY_MODEL", "PRIMARY_BASE_URL",
	"SECONDARY_PROVIDER", "SECONDARY_API_KEY", "SECONDARY_MODEL", "SECONDARY_BASE_URL",
	"RETRY_MAX_RETRIES", "RETRY_INITIAL_DELAY_MS", "BACKEND_TIMEOUT_SEC", "REQUEST_TIMEOUT_SEC",
	"RATE_LIMIT_PER_MIN", "PORT", "REVIEW_THRESHOLD", "BATCH_CONCURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay())
	assert.Equal(t, 25*time.Second, cfg.BackendTimeout())
	assert.Equal(t, time.Minute, cfg.RequestTimeout())
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Primary.Enabled())
	assert.False(t, cfg.Secondary.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
primary:
  provider: anthropic
  api_key: file-key
  model: claude-3-5-haiku-latest
retry:
  max_retries: 4
  initial_delay_ms: 250
review_threshold: 0.6
`), 0o600))

	t.Setenv("RETRY_MAX_RETRIES", "1")
	t.Setenv("SECONDARY_PROVIDER", "OpenAI")
	t.Setenv("SECONDARY_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Primary.Provider)
	assert.Equal(t, "file-key", cfg.Primary.APIKey)
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialDelay())
	assert.Equal(t, 0.6, cfg.ReviewThreshold)
	assert.Equal(t, ProviderOpenAI, cfg.Secondary.Provider)
	assert.True(t, cfg.Secondary.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("RETRY_MAX_RETRIES", "two")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRY_MAX_RETRIES")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown provider on enabled slot", func(c *Config) {
			c.Primary = Backend{Provider: "cohere", APIKey: "k"}
		}, "unknown provider"},
		{"unknown provider on disabled slot is ignored", func(c *Config) {
			c.Primary = Backend{Provider: "cohere"}
		}, ""},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "max_retries"},
		{"zero delay", func(c *Config) { c.Retry.InitialDelayMS = 0 }, "initial_delay_ms"},
		{"threshold above one", func(c *Config) { c.ReviewThreshold = 1.5 }, "review_threshold"},
		{"zero concurrency", func(c *Config) { c.BatchConcurrency = 0 }, "batch_concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestSummary_HidesSecrets(t *testing.T) {
	cfg := Default()
	cfg.Primary.APIKey = "secret"
	cfg.Primary.Model = "gemini-1.5-flash"

	s := cfg.Summary()
	assert.True(t, s.Primary.Enabled)
	assert.Equal(t, ProviderGemini, s.Primary.Provider)
	assert.False(t, s.Secondary.Enabled)
	assert.Empty(t, s.Secondary.Provider)
}
