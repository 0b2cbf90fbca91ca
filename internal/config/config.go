// Package config loads service settings from an optional YAML file overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted for a backend slot.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Backend describes one extraction backend slot. A slot without an API key is disabled.
type Backend struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// Enabled reports whether the slot has credentials.
func (b Backend) Enabled() bool { return strings.TrimSpace(b.APIKey) != "" }

type Retry struct {
	MaxRetries     int `yaml:"max_retries"`
	InitialDelayMS int `yaml:"initial_delay_ms"`
}

type Config struct {
	Primary   Backend `yaml:"primary"`
	Secondary Backend `yaml:"secondary"`
	Retry     Retry   `yaml:"retry"`

	BackendTimeoutSec int     `yaml:"backend_timeout_sec"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RateLimitPerMin   int     `yaml:"rate_limit_per_min"`
	Port              string  `yaml:"port"`
	ReviewThreshold   float64 `yaml:"review_threshold"`
	BatchConcurrency  int     `yaml:"batch_concurrency"`
}

// Default returns the settings used when neither file nor environment say otherwise.
func Default() Config {
	return Config{
		Primary:           Backend{Provider: ProviderGemini},
		Secondary:         Backend{Provider: ProviderOpenAI},
		Retry:             Retry{MaxRetries: 2, InitialDelayMS: 1000},
		BackendTimeoutSec: 25,
		RequestTimeoutSec: 60,
		RateLimitPerMin:   50,
		Port:              "8080",
		ReviewThreshold:   0.75,
		BatchConcurrency:  4,
	}
}

// Load reads path (skipped when empty) over the defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	envBackend("PRIMARY", &cfg.Primary)
	envBackend("SECONDARY", &cfg.Secondary)

	var errs []error
	errs = append(errs,
		envInt("RETRY_MAX_RETRIES", &cfg.Retry.MaxRetries),
		envInt("RETRY_INITIAL_DELAY_MS", &cfg.Retry.InitialDelayMS),
		envInt("BACKEND_TIMEOUT_SEC", &cfg.BackendTimeoutSec),
		envInt("REQUEST_TIMEOUT_SEC", &cfg.RequestTimeoutSec),
		envInt("RATE_LIMIT_PER_MIN", &cfg.RateLimitPerMin),
		envInt("BATCH_CONCURRENCY", &cfg.BatchConcurrency),
	)
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("REVIEW_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("REVIEW_THRESHOLD: %w", err))
		} else {
			cfg.ReviewThreshold = f
		}
	}
	return errors.Join(errs...)
}

func envBackend(prefix string, b *Backend) {
	if v := os.Getenv(prefix + "_PROVIDER"); v != "" {
		b.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		b.APIKey = v
	}
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		b.Model = v
	}
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		b.BaseURL = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks ranges and provider names.
func (c Config) Validate() error {
	var errs []error
	for name, b := range map[string]Backend{"primary": c.Primary, "secondary": c.Secondary} {
		if !b.Enabled() {
			continue
		}
		switch b.Provider {
		case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", name, b.Provider))
		}
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must be >= 0"))
	}
	if c.Retry.InitialDelayMS <= 0 {
		errs = append(errs, fmt.Errorf("retry.initial_delay_ms must be > 0"))
	}
	if c.BackendTimeoutSec <= 0 || c.RequestTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("timeouts must be > 0"))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_min must be >= 0"))
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > 1 {
		errs = append(errs, fmt.Errorf("review_threshold must be within [0,1]"))
	}
	if c.BatchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("batch_concurrency must be >= 1"))
	}
	return errors.Join(errs...)
}

func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.Retry.InitialDelayMS) * time.Millisecond
}

func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Summary describes which backends are configured, without secrets.
type Summary struct {
	Primary          BackendSummary `json:"primary"`
	Secondary        BackendSummary `json:"secondary"`
	MaxRetries       int            `json:"max_retries"`
	InitialDelayMS   int            `json:"initial_delay_ms"`
	RequestTimeout   int            `json:"request_timeout_sec"`
	ReviewThreshold  float64        `json:"review_threshold"`
	BatchConcurrency int            `json:"batch_concurrency"`
}

type BackendSummary struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

func (c Config) Summary() Summary {
	summarize := func(b Backend) BackendSummary {
		if !b.Enabled() {
			return BackendSummary{}
		}
		return BackendSummary{Enabled: true, Provider: b.Provider, Model: b.Model}
	}
	return Summary{
		Primary:          summarize(c.Primary),
		Secondary:        summarize(c.Secondary),
		MaxRetries:       c.Retry.MaxRetries,
		InitialDelayMS:   c.Retry.InitialDelayMS,
		RequestTimeout:   c.RequestTimeoutSec,
		ReviewThreshold:  c.ReviewThreshold,
		BatchConcurrency: c.BatchConcurrency,
	}
}
