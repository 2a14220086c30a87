// Package llm provides the gateway to text-generation providers.
// A Client performs one request/response exchange; the Gateway wraps it with
// bounded retry and failure classification.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint (Groq, Ollama, vLLM, ...)
	ProviderOpenAI Provider = "openai"
)

// DefaultGroqBaseURL is the OpenAI-compatible endpoint used when no base URL is configured.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// Params carries per-request model settings. Zero values mean "use the default".
type Params struct {
	Model       string  `koanf:"model" json:"model,omitempty"`
	MaxTokens   int     `koanf:"max_tokens" json:"max_tokens,omitempty"`
	Temperature float32 `koanf:"temperature" json:"temperature,omitempty"`
	TopP        float32 `koanf:"top_p" json:"top_p,omitempty"`
}

// Merge returns p with zero fields filled from defaults.
func (p Params) Merge(defaults Params) Params {
	if p.Model == "" {
		p.Model = defaults.Model
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = defaults.MaxTokens
	}
	if p.Temperature == 0 {
		p.Temperature = defaults.Temperature
	}
	if p.TopP == 0 {
		p.TopP = defaults.TopP
	}
	return p
}

// Config holds the provider configuration for the application
type Config struct {
	Provider Provider
	BaseURL  string        // OpenAI-compatible endpoints only
	Timeout  time.Duration // per-call HTTP timeout
	Defaults Params
}

// DefaultConfig returns the default configuration (Groq via the OpenAI-compatible API)
func DefaultConfig() *Config {
	return DefaultOpenAIConfig()
}

// DefaultOpenAIConfig returns defaults for an OpenAI-compatible endpoint.
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		BaseURL:  DefaultGroqBaseURL,
		Timeout:  120 * time.Second,
		Defaults: Params{
			Model:       "openai/gpt-oss-20b",
			MaxTokens:   512,
			Temperature: 1,
			TopP:        1,
		},
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Timeout:  120 * time.Second,
		Defaults: Params{
			Model:       "gemini-2.5-flash",
			MaxTokens:   1024,
			Temperature: 1,
			TopP:        1,
		},
	}
}

// WithModel returns a copy of the config using model as the default model
func (c *Config) WithModel(model string) *Config {
	next := *c
	next.Defaults.Model = model
	return &next
}
