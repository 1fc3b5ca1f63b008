// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trawler/config.yaml",
	"/etc/trawler/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied first and then
// overridden by config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Environment:     "development",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			AllowedOrigins:    []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Crawl: CrawlConfig{
			RequestTimeout:   15 * time.Second,
			ProbeTimeout:     5 * time.Second,
			ProbeCacheTTL:    time.Hour,
			RatePerSite:      2.0,
			UserAgent:        "Mozilla/5.0 (compatible; Trawler/1.0; +https://github.com/tomtom215/trawler)",
			MaxRankRange:     100,
			MaxDateRangeDays: 365,
		},
		Reddit: RedditConfig{
			UserAgent: "trawler/1.0",
		},
		Translate: TranslateConfig{
			BaseURL: "https://translation.googleapis.com/language/translate/v2",
			Timeout: 10 * time.Second,
		},
		Media: MediaConfig{
			Dir:                "", // Empty resolves to os.TempDir()/trawler-media at startup
			MaxFileBytes:       100 << 20, // 100 MB
			MaxTotalBytes:      900 << 20, // 900 MB
			PerHostConcurrency: 5,
			DownloadTimeout:    30 * time.Second,
			RetryAttempts:      3,
			ArchiveTTL:         4 * time.Hour,
			SweepInterval:      15 * time.Minute,
		},
		Boards: BoardsConfig{
			Dir: "data/boards",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are the config paths parsed as comma-separated slices
// when they arrive via environment variables.
var sliceConfigPaths = []string{
	"security.allowed_origins",
}

// processSliceFields converts comma-separated strings to slices for known
// slice fields; env vars always arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML): nothing to do.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps recognized environment variables to config paths.
// Unmapped variables return "" and are skipped, which keeps random
// environment noise out of the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"app_env":          "server.environment",
		"port":             "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"shutdown_timeout": "server.shutdown_timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Security
		"allowed_origins":     "security.allowed_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Crawl
		"crawl_request_timeout": "crawl.request_timeout",
		"crawl_probe_timeout":   "crawl.probe_timeout",
		"crawl_probe_cache_ttl": "crawl.probe_cache_ttl",
		"crawl_rate_per_site":   "crawl.rate_per_site",
		"crawl_user_agent":      "crawl.user_agent",

		// Reddit API credentials
		"reddit_client_id":     "reddit.client_id",
		"reddit_client_secret": "reddit.client_secret",
		"reddit_user_agent":    "reddit.user_agent",

		// Translation service
		"translate_api_key": "translate.api_key",
		"translate_api_url": "translate.base_url",
		"translate_timeout": "translate.timeout",

		// Media packager
		"media_dir":             "media.dir",
		"media_max_file_bytes":  "media.max_file_bytes",
		"media_max_total_bytes": "media.max_total_bytes",
		"media_archive_ttl":     "media.archive_ttl",
		"media_sweep_interval":  "media.sweep_interval",

		// Board lookup tables
		"boards_dir": "boards.dir",

		// Metrics
		"metrics_enabled": "metrics.enabled",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
