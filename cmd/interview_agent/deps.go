package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/fetch"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
)

// app holds the collaborators shared by the serve and practice commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	store    db.Store
	client   llm.Client
	engine   *interview.Engine
}

// newApp connects the store and the model provider and assembles the engine.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("an API key is required (INTERVIEW_API_KEY, GROQ_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY)")
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = observability.NewMetrics(a.registry)

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store

	llmConfig := cfg.LLM()
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.client = client

	gateway := llm.NewGateway(client, llmConfig.Defaults,
		llm.WithMaxAttempts(cfg.MaxAttempts),
		llm.WithBackoffUnit(cfg.BackoffUnit),
		llm.WithLogger(logger.Named("llm")),
		llm.WithMetrics(a.metrics),
	)

	componentLogger := logger.Named("interview")
	posting := fetch.NewPostingFetcher(&fetch.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: fetch.DefaultUserAgent,
		MaxBytes:  fetch.DefaultMaxBytes,
	}, cfg.FetchMaxChars, logger.Named("fetch"))

	a.engine = interview.NewEngine(
		interview.NewQuestionGenerator(gateway, llm.Params{}, componentLogger, a.metrics),
		interview.NewAnswerEvaluator(gateway, llm.Params{}, componentLogger, a.metrics),
		interview.NewSummarySynthesizer(gateway, llm.Params{}, componentLogger, a.metrics),
		interview.WithRecorder(store),
		interview.WithContextFetcher(fetch.NewCachedFetcher(posting, cfg.FetchCacheTTL)),
		interview.WithEngineLogger(componentLogger),
		interview.WithEngineMetrics(a.metrics),
	)
	return a, nil
}

// Close releases the provider client and the store.
func (a *app) Close() error {
	return errors.Join(a.client.Close(), a.store.Close())
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
