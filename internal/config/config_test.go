package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/llm"
)

// clearEnv unsets variables that Load reads so host settings do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{EnvConfigPath, "GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "JWT_SECRET"}
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, EnvPrefix) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.DefaultQuestionCount)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BackoffUnit)
	assert.Equal(t, string(llm.ProviderOpenAI), cfg.LLMProvider)
	assert.Empty(t, cfg.APIKey)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	content := `
addr: ":9090"
log_level: debug
llm_model: llama-3.1-8b-instant
default_question_count: 7
session_ttl: 30m
backoff_unit: 250ms
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("INTERVIEW_ADDR", ":7070")
	t.Setenv("INTERVIEW_LEADERBOARD_LIMIT", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr, "env overrides file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLMModel)
	assert.Equal(t, 7, cfg.DefaultQuestionCount)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.BackoffUnit)
	assert.Equal(t, 25, cfg.LeaderboardLimit)
	assert.Equal(t, "info", New().LogLevel, "defaults are not mutated")
}

func TestLoad_ListsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTERVIEW_RATE_LIMIT_EXEMPT", "127.0.0.1, 10.0.0.8")
	t.Setenv("INTERVIEW_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.8"}, cfg.RateLimitExempt)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_url": "sqlite:///tmp/x.db"}`), 0o644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/x.db", cfg.DatabaseURL)
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_APIKeyFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "groq-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "groq-key", cfg.APIKey)

	t.Setenv("INTERVIEW_LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.APIKey)

	t.Setenv("INTERVIEW_API_KEY", "explicit")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Addr = "" }, "'addr'"},
		{"bad provider", func(c *Config) { c.LLMProvider = "anthropic" }, "llm_provider"},
		{"zero tokens", func(c *Config) { c.LLMMaxTokens = 0 }, "llm_max_tokens"},
		{"temperature", func(c *Config) { c.LLMTemperature = 3 }, "llm_temperature"},
		{"top p", func(c *Config) { c.LLMTopP = 1.5 }, "llm_top_p"},
		{"attempts", func(c *Config) { c.MaxAttempts = 0 }, "max_attempts"},
		{"count high", func(c *Config) { c.DefaultQuestionCount = 11 }, "default_question_count"},
		{"count low", func(c *Config) { c.DefaultQuestionCount = 0 }, "default_question_count"},
		{"time limit", func(c *Config) { c.DefaultTimeLimit = -1 }, "default_time_limit_seconds"},
		{"leaderboard", func(c *Config) { c.LeaderboardLimit = 0 }, "leaderboard_limit"},
		{"ttl", func(c *Config) { c.SessionTTL = 0 }, "session_ttl"},
		{"auth without secret", func(c *Config) { c.AuthRequired = true }, "jwt_secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLLM(t *testing.T) {
	cfg := New()
	cfg.LLMModel = "custom-model"
	cfg.LLMBaseURL = "http://localhost:11434/v1"

	lc := cfg.LLM()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "http://localhost:11434/v1", lc.BaseURL)
	assert.Equal(t, "custom-model", lc.Defaults.Model)
	assert.Equal(t, 512, lc.Defaults.MaxTokens)

	cfg.LLMProvider = string(llm.ProviderGemini)
	cfg.LLMModel = ""
	lc = cfg.LLM()
	assert.Equal(t, llm.ProviderGemini, lc.Provider)
	assert.Equal(t, "gemini-2.5-flash", lc.Defaults.Model)
	assert.Empty(t, lc.BaseURL)
}
