package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/server"
	"github.com/jonathan/interview-coach/internal/server/ratelimit"
	"github.com/jonathan/interview-coach/internal/sessions"
)

// janitorInterval is how often expired in-memory sessions are swept.
const janitorInterval = time.Minute

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for practice interviews, history and the leaderboard.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	jwtConfig, err := authConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close resources", zap.Error(err))
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	var registry sessions.Registry
	if cfg.RedisURL != "" {
		rdb, err := sessions.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		registry = sessions.NewRedisRegistry(rdb, cfg.SessionTTL)
		logger.Info("using redis session registry")
	} else {
		memory := sessions.NewMemoryRegistry(cfg.SessionTTL)
		g.Go(func() error { return memory.RunJanitor(ctx, janitorInterval) })
		registry = memory
	}

	srv := server.New(server.Config{
		Addr:             cfg.Addr,
		CORSOrigins:      cfg.CORSOrigins,
		RateLimit:        ratelimit.NewConfig(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.RateLimitExempt),
		JWT:              jwtConfig,
		LeaderboardLimit: cfg.LeaderboardLimit,
		DefaultCount:     cfg.DefaultQuestionCount,
		DefaultTimeLimit: cfg.DefaultTimeLimit,
		RequestTimeout:   cfg.LLMTimeout * time.Duration(cfg.MaxAttempts+1),
	}, server.Deps{
		Engine:   a.engine,
		Store:    a.store,
		Registry: registry,
		Logger:   logger.Named("http"),
		Metrics:  a.metrics,
		Gatherer: a.registry,
	})

	g.Go(func() error { return srv.Run(ctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// authConfig returns the JWT settings when authentication is enabled.
func authConfig(cfg *config.Config) (*config.JWTConfig, error) {
	if !cfg.AuthRequired {
		return nil, nil
	}
	return cfg.JWT()
}
