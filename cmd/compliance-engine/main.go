package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/compliance-engine/internal/api"
	"github.com/terra-clan/compliance-engine/internal/assessment"
	"github.com/terra-clan/compliance-engine/internal/cache"
	"github.com/terra-clan/compliance-engine/internal/cleanup"
	"github.com/terra-clan/compliance-engine/internal/config"
	"github.com/terra-clan/compliance-engine/internal/frameworks"
	"github.com/terra-clan/compliance-engine/internal/health"
	"github.com/terra-clan/compliance-engine/internal/models"
	"github.com/terra-clan/compliance-engine/internal/scoring"
	"github.com/terra-clan/compliance-engine/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting compliance-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize database repository (migrations run first)
	repo, err := storage.Open(initCtx, storage.OpenConfig{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	if cfg.Auth.BootstrapKey != "" {
		if err := bootstrapClient(initCtx, repo, cfg.Auth.BootstrapKey); err != nil {
			slog.Error("failed to register bootstrap api client", "error", err)
			os.Exit(1)
		}
	}

	// Readiness checks
	checks := health.NewRegistry()

	// Report cache
	var reportCache cache.ReportCache
	if cfg.Redis.Address != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		reportCache = redisCache
		checks.Register("redis", redisCache)
		slog.Info("report cache: redis", "address", cfg.Redis.Address, "ttl", cfg.Redis.TTL)
	} else {
		reportCache = cache.NewMemory(cfg.Redis.TTL)
		slog.Info("report cache: in-process", "ttl", cfg.Redis.TTL)
	}

	// Load frameworks
	loader := frameworks.NewLoader()
	if err := loader.LoadFromDir(cfg.Frameworks.Dir); err != nil {
		slog.Error("failed to load frameworks", "dir", cfg.Frameworks.Dir, "error", err)
		os.Exit(1)
	}
	checks.Register("frameworks", health.CheckerFunc(func(context.Context) error {
		if len(loader.List()) == 0 {
			return fmt.Errorf("no frameworks loaded from %s", cfg.Frameworks.Dir)
		}
		return nil
	}))

	// Initialize scoring engine and assessment service
	engine := scoring.NewEngine(scoring.Config{
		GapBenchmark:            cfg.Scoring.GapBenchmark,
		MaxGaps:                 cfg.Scoring.MaxGaps,
		MaxRecommendations:      cfg.Scoring.MaxRecommendations,
		RecommendationThreshold: cfg.Scoring.RecommendationThreshold,
		ImpactCap:               cfg.Scoring.ImpactCap,
	}, nil)
	service := assessment.NewManager(repo, loader, engine, reportCache)

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(service, cfg.Cleanup.Interval, cfg.Cleanup.Retention)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, service, loader, repo, checks)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := reportCache.Close(); err != nil {
		slog.Error("report cache close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("compliance-engine stopped")
}

// bootstrapClient registers a full-permission client for key unless it exists
func bootstrapClient(ctx context.Context, repo storage.Repository, key string) error {
	existing, err := repo.GetClientByApiKey(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	client := &models.ApiClient{
		Name:        "bootstrap",
		ApiKey:      key,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		Permissions: []string{"*"},
	}
	if err := repo.CreateClient(ctx, client); err != nil {
		return err
	}

	slog.Info("bootstrap api client registered", "key_prefix", client.MaskedApiKey())
	return nil
}
