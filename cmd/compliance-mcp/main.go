// compliance-mcp serves the scoring engine over MCP (stdio transport).
//
// Usage:
//
//	compliance-mcp serve      # Start MCP server
//	compliance-mcp version
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/terra-clan/compliance-engine/internal/assessment"
	"github.com/terra-clan/compliance-engine/internal/cache"
	"github.com/terra-clan/compliance-engine/internal/config"
	"github.com/terra-clan/compliance-engine/internal/frameworks"
	"github.com/terra-clan/compliance-engine/internal/mcpserver"
	"github.com/terra-clan/compliance-engine/internal/scoring"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--version", "-v", "version":
		fmt.Printf("compliance-mcp %s\n", mcpserver.Version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout carries the MCP protocol, so logs go to stderr
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))

	loader := frameworks.NewLoader()
	if err := loader.LoadFromDir(cfg.Frameworks.Dir); err != nil {
		return fmt.Errorf("loading frameworks: %w", err)
	}

	engine := scoring.NewEngine(scoring.Config{
		GapBenchmark:            cfg.Scoring.GapBenchmark,
		MaxGaps:                 cfg.Scoring.MaxGaps,
		MaxRecommendations:      cfg.Scoring.MaxRecommendations,
		RecommendationThreshold: cfg.Scoring.RecommendationThreshold,
		ImpactCap:               cfg.Scoring.ImpactCap,
	}, nil)

	// Tools only score; nothing is persisted, so no repository is wired.
	analyzer := assessment.NewManager(nil, loader, engine, cache.NewMemory(cfg.Redis.TTL))

	s := mcpserver.New(analyzer, loader)
	slog.Info("compliance-mcp serving on stdio", "frameworks", len(loader.List()))
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `compliance-mcp %s: CMMC / NIST 800-171 scoring over MCP

Usage:
  compliance-mcp serve     Start the MCP server on stdio
  compliance-mcp version   Print the version

Environment:
  FRAMEWORKS_DIR           Framework definitions (default ./frameworks)
  SCORING_*                Engine constants
  LOG_LEVEL                debug, info, warn, error
`, mcpserver.Version)
}
