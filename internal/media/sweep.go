// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package media

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/metrics"
)

const (
	defaultArchiveTTL    = 4 * time.Hour
	defaultSweepInterval = 15 * time.Minute
)

// Sweeper removes expired archives from the media directory. It runs as a
// supervised service.
type Sweeper struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper builds a sweeper over the packager's directory.
func NewSweeper(p *Packager) *Sweeper {
	ttl := p.cfg.ArchiveTTL
	if ttl <= 0 {
		ttl = defaultArchiveTTL
	}
	interval := p.cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{dir: p.cfg.Dir, ttl: ttl, interval: interval}
}

// String names the service in supervisor logs.
func (s *Sweeper) String() string { return "media-sweeper" }

// Serve runs the sweep loop until the context is cancelled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce(time.Now())
		}
	}
}

// SweepOnce removes archives and orphaned staging dirs older than the TTL,
// returning how many archives were removed.
func (s *Sweeper) SweepOnce(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logging.Warn().Str("dir", s.dir).Err(err).Msg("media sweep failed to list dir")
		return 0
	}

	cutoff := now.Add(-s.ttl)
	removed := 0

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		full := filepath.Join(s.dir, entry.Name())
		switch {
		case !entry.IsDir() && archiveNamePattern.MatchString(entry.Name()):
			if err := os.Remove(full); err == nil {
				removed++
				metrics.MediaArchivesSwept.Inc()
				logging.Debug().Str("archive", entry.Name()).Msg("expired media archive removed")
			}
		case entry.IsDir() && len(entry.Name()) > 8 && entry.Name()[:8] == "staging-":
			// Staging dirs normally vanish with their session; an old one
			// means the process died mid-package.
			_ = os.RemoveAll(full)
		}
	}

	return removed
}
