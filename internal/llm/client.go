package llm

import (
	"context"
	"fmt"
)

// Request is a single textual exchange with a provider.
type Request struct {
	System string
	User   string
	Params Params
}

// Client is an abstraction over LLM providers
type Client interface {
	// Complete sends one request and returns the raw text response.
	// Empty content is not an error at this level.
	Complete(ctx context.Context, req Request) (string, error)
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI, "":
		return NewOpenAIClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}
