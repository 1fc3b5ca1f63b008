// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.IsProduction() {
		t.Error("default environment should not be production")
	}
	if cfg.Crawl.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.Crawl.RequestTimeout)
	}
	if cfg.Media.ArchiveTTL != 4*time.Hour {
		t.Errorf("ArchiveTTL = %v", cfg.Media.ArchiveTTL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://trawler.example.com, https://alt.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDDIT_CLIENT_ID", "abc")
	t.Setenv("REDDIT_CLIENT_SECRET", "def")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	if !cfg.Server.IsProduction() {
		t.Error("APP_ENV=production should mark production")
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
	if cfg.Security.AllowedOrigins[1] != "https://alt.example.com" {
		t.Errorf("AllowedOrigins[1] = %q", cfg.Security.AllowedOrigins[1])
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if !cfg.Reddit.Enabled() {
		t.Error("Reddit should be enabled with credentials")
	}
}

func TestProductionRequiresOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("production without ALLOWED_ORIGINS should fail validation")
	}
}

func TestConfigFileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9200\ncrawl:\n  rate_per_site: 4.5\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 9200 {
		t.Errorf("Port = %d, want 9200 from file", cfg.Server.Port)
	}
	if cfg.Crawl.RatePerSite != 4.5 {
		t.Errorf("RatePerSite = %v", cfg.Crawl.RatePerSite)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9200\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PORT", "9300")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("Port = %d, env should beat file", cfg.Server.Port)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero request timeout", func(c *Config) { c.Crawl.RequestTimeout = 0 }},
		{"zero rank range", func(c *Config) { c.Crawl.MaxRankRange = 0 }},
		{"file cap above total", func(c *Config) { c.Media.MaxFileBytes = c.Media.MaxTotalBytes + 1 }},
		{"zero per-host concurrency", func(c *Config) { c.Media.PerHostConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
