// Package config loads service and CLI configuration.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML or JSON file, then INTERVIEW_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jonathan/interview-coach/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. INTERVIEW_ADDR.
const EnvPrefix = "INTERVIEW_"

// EnvConfigPath names a config file when --config is not given.
const EnvConfigPath = "INTERVIEW_CONFIG"

// Config holds process configuration. Keys are flat so that each maps to one
// environment variable.
type Config struct {
	Addr      string `koanf:"addr"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// DatabaseURL is "memory", postgres://... or sqlite://path.
	DatabaseURL string `koanf:"database_url"`
	// RedisURL enables the shared live-session registry. Empty keeps sessions in memory.
	RedisURL   string        `koanf:"redis_url"`
	SessionTTL time.Duration `koanf:"session_ttl"`

	LLMProvider    string        `koanf:"llm_provider"`
	LLMBaseURL     string        `koanf:"llm_base_url"`
	LLMModel       string        `koanf:"llm_model"`
	LLMMaxTokens   int           `koanf:"llm_max_tokens"`
	LLMTemperature float32       `koanf:"llm_temperature"`
	LLMTopP        float32       `koanf:"llm_top_p"`
	LLMTimeout     time.Duration `koanf:"llm_timeout"`
	APIKey         string        `koanf:"api_key"`
	MaxAttempts    int           `koanf:"max_attempts"`
	BackoffUnit    time.Duration `koanf:"backoff_unit"`

	DefaultQuestionCount int `koanf:"default_question_count"`
	DefaultTimeLimit     int `koanf:"default_time_limit_seconds"`
	LeaderboardLimit     int `koanf:"leaderboard_limit"`

	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	FetchMaxChars int           `koanf:"fetch_max_chars"`
	FetchCacheTTL time.Duration `koanf:"fetch_cache_ttl"`

	RateLimitRPS    float64  `koanf:"rate_limit_rps"`
	RateLimitBurst  int      `koanf:"rate_limit_burst"`
	RateLimitExempt []string `koanf:"rate_limit_exempt"` // client IPs
	CORSOrigins     []string `koanf:"cors_origins"`
	AuthRequired    bool     `koanf:"auth_required"`

	JWTSecret          string `koanf:"jwt_secret"`
	JWTExpirationHours int    `koanf:"jwt_expiration_hours"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:                 ":8080",
		LogLevel:             "info",
		LogFormat:            "json",
		DatabaseURL:          "memory",
		SessionTTL:           24 * time.Hour,
		LLMProvider:          string(llm.ProviderOpenAI),
		LLMBaseURL:           llm.DefaultGroqBaseURL,
		LLMModel:             "openai/gpt-oss-20b",
		LLMMaxTokens:         512,
		LLMTemperature:       1,
		LLMTopP:              1,
		LLMTimeout:           120 * time.Second,
		MaxAttempts:          llm.DefaultMaxAttempts,
		BackoffUnit:          llm.DefaultBackoffUnit,
		DefaultQuestionCount: 5,
		LeaderboardLimit:     10,
		FetchTimeout:         15 * time.Second,
		FetchMaxChars:        4000,
		FetchCacheTTL:        time.Hour,
		RateLimitRPS:         5,
		RateLimitBurst:       10,
		CORSOrigins:          []string{"*"},
		JWTExpirationHours:   24,
	}
}

// Load builds a Config from defaults, the file at path (or $INTERVIEW_CONFIG) and
// the environment, then validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyKeyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are comma-separated when set from the environment.
var listKeys = map[string]bool{"cors_origins": true, "rate_limit_exempt": true}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// applyKeyFallbacks reads the provider's conventional API key and JWT secret
// variables when the prefixed ones are unset.
func (c *Config) applyKeyFallbacks() {
	if c.APIKey == "" {
		switch llm.Provider(c.LLMProvider) {
		case llm.ProviderGemini:
			c.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			c.APIKey = firstEnv("GROQ_API_KEY", "OPENAI_API_KEY")
		}
	}
	if c.JWTSecret == "" {
		c.JWTSecret = os.Getenv("JWT_SECRET")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config error: 'addr' must not be empty")
	}
	switch llm.Provider(c.LLMProvider) {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("config error: unsupported 'llm_provider': %s", c.LLMProvider)
	}
	if c.LLMMaxTokens < 1 {
		return fmt.Errorf("config error: 'llm_max_tokens' must be positive")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("config error: 'llm_temperature' must be between 0 and 2")
	}
	if c.LLMTopP < 0 || c.LLMTopP > 1 {
		return fmt.Errorf("config error: 'llm_top_p' must be between 0 and 1")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config error: 'max_attempts' must be at least 1")
	}
	if c.BackoffUnit < 0 {
		return fmt.Errorf("config error: 'backoff_unit' must be non-negative")
	}
	if c.DefaultQuestionCount < 1 || c.DefaultQuestionCount > 10 {
		return fmt.Errorf("config error: 'default_question_count' must be between 1 and 10")
	}
	if c.DefaultTimeLimit < 0 {
		return fmt.Errorf("config error: 'default_time_limit_seconds' must be non-negative")
	}
	if c.LeaderboardLimit < 1 {
		return fmt.Errorf("config error: 'leaderboard_limit' must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config error: 'session_ttl' must be positive")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	if c.AuthRequired && c.JWTSecret == "" {
		return fmt.Errorf("config error: 'jwt_secret' is required when 'auth_required' is set")
	}
	return nil
}

// LLM returns the provider configuration.
func (c *Config) LLM() *llm.Config {
	base := llm.DefaultOpenAIConfig()
	if llm.Provider(c.LLMProvider) == llm.ProviderGemini {
		base = llm.DefaultGeminiConfig()
	}
	if c.LLMBaseURL != "" && base.Provider == llm.ProviderOpenAI {
		base.BaseURL = c.LLMBaseURL
	}
	if c.LLMTimeout > 0 {
		base.Timeout = c.LLMTimeout
	}
	base.Defaults = llm.Params{
		Model:       c.LLMModel,
		MaxTokens:   c.LLMMaxTokens,
		Temperature: c.LLMTemperature,
		TopP:        c.LLMTopP,
	}.Merge(base.Defaults)
	return base
}
