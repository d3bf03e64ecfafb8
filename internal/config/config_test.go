package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "file:test.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ASSESSMENT_RETENTION", "72h")
	t.Setenv("SCORING_GAP_BENCHMARK", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Cleanup.Retention != 72*time.Hour {
		t.Errorf("expected 72h retention, got %s", cfg.Cleanup.Retention)
	}
	if cfg.Scoring.GapBenchmark != 75 {
		t.Errorf("expected default benchmark on bad input, got %d", cfg.Scoring.GapBenchmark)
	}
	if cfg.Scoring.MaxRecommendations != 10 || cfg.Scoring.ImpactCap != 25 {
		t.Errorf("unexpected scoring defaults: %+v", cfg.Scoring)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://x"},
			Scoring:  ScoringConfig{GapBenchmark: 75},
			Cleanup:  CleanupConfig{Interval: time.Minute},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"benchmark too high", func(c *Config) { c.Scoring.GapBenchmark = 101 }},
		{"zero interval", func(c *Config) { c.Cleanup.Interval = 0 }},
		{"short bootstrap key", func(c *Config) { c.Auth.BootstrapKey = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}
}
