// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Trawler service.
// Loading precedence: environment variables > YAML file > built-in defaults.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	Crawl     CrawlConfig     `koanf:"crawl"`
	Reddit    RedditConfig    `koanf:"reddit"`
	Translate TranslateConfig `koanf:"translate"`
	Media     MediaConfig     `koanf:"media"`
	Boards    BoardsConfig    `koanf:"boards"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Environment is "production" or anything else (treated as development).
	// Production enforces the WebSocket origin allow-list.
	Environment string `koanf:"environment"`

	// Timeout bounds request read/write on the HTTP server. WebSocket
	// sessions are exempt (hijacked connections).
	Timeout time.Duration `koanf:"timeout"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// LoggingConfig mirrors logging.Config for the koanf layer.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds origin and rate-limit settings.
type SecurityConfig struct {
	// AllowedOrigins is the WebSocket origin allow-list enforced in
	// production. Empty in production means same-origin only.
	AllowedOrigins []string `koanf:"allowed_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CrawlConfig tunes the crawl pipeline and outbound fetching.
type CrawlConfig struct {
	// RequestTimeout bounds a single adapter page fetch.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// ProbeTimeout bounds the Lemmy instance probe.
	ProbeTimeout time.Duration `koanf:"probe_timeout"`

	// ProbeCacheTTL is how long a probe decision (positive or negative)
	// stays cached.
	ProbeCacheTTL time.Duration `koanf:"probe_cache_ttl"`

	// RatePerSite is outbound requests per second per site.
	RatePerSite float64 `koanf:"rate_per_site"`

	// UserAgent identifies the crawler on scraped sites.
	UserAgent string `koanf:"user_agent"`

	// MaxRankRange caps end_index - start_index.
	MaxRankRange int `koanf:"max_rank_range"`

	// MaxDateRangeDays caps the custom date window.
	MaxDateRangeDays int `koanf:"max_date_range_days"`
}

// RedditConfig carries the Reddit API credentials. The adapter is disabled
// when the client id is empty.
type RedditConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	UserAgent    string `koanf:"user_agent"`
}

// Enabled reports whether the Reddit adapter can authenticate.
func (r RedditConfig) Enabled() bool {
	return r.ClientID != "" && r.ClientSecret != ""
}

// TranslateConfig configures the external translation service client.
// Translation is skipped entirely when the API key is empty.
type TranslateConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// Enabled reports whether translation calls can be made.
func (t TranslateConfig) Enabled() bool {
	return t.APIKey != ""
}

// MediaConfig bounds the media packager.
type MediaConfig struct {
	// Dir is the process-local archive directory.
	Dir string `koanf:"dir"`

	MaxFileBytes  int64 `koanf:"max_file_bytes"`
	MaxTotalBytes int64 `koanf:"max_total_bytes"`

	// PerHostConcurrency caps simultaneous downloads per host.
	PerHostConcurrency int `koanf:"per_host_concurrency"`

	DownloadTimeout time.Duration `koanf:"download_timeout"`
	RetryAttempts   int           `koanf:"retry_attempts"`

	// ArchiveTTL is how long a built ZIP stays retrievable before the
	// sweeper removes it.
	ArchiveTTL    time.Duration `koanf:"archive_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// BoardsConfig locates the on-disk board lookup tables.
type BoardsConfig struct {
	// Dir holds dcinside_galleries.json and blind_topics.json. Missing
	// files are tolerated; the affected adapters fail resolution.
	Dir string `koanf:"dir"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Validate checks cross-field constraints. Invalid configuration aborts
// startup rather than producing surprising runtime behavior.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be positive")
	}
	if c.Crawl.MaxRankRange < 1 {
		return fmt.Errorf("crawl.max_rank_range must be at least 1")
	}
	if c.Crawl.MaxDateRangeDays < 1 {
		return fmt.Errorf("crawl.max_date_range_days must be at least 1")
	}
	if c.Media.MaxFileBytes <= 0 || c.Media.MaxTotalBytes <= 0 {
		return fmt.Errorf("media size caps must be positive")
	}
	if c.Media.MaxFileBytes > c.Media.MaxTotalBytes {
		return fmt.Errorf("media.max_file_bytes exceeds media.max_total_bytes")
	}
	if c.Media.PerHostConcurrency < 1 {
		return fmt.Errorf("media.per_host_concurrency must be at least 1")
	}
	if c.Server.IsProduction() && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("production requires security.allowed_origins (ALLOWED_ORIGINS)")
	}
	return nil
}
