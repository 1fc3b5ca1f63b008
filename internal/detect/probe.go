// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package detect

import (
	"context"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/models"
)

// LemmyProber decides whether an unknown host is a Lemmy instance by
// calling its /api/v3/site endpoint. Decisions, positive and negative,
// are cached in an in-memory Badger store with a TTL so repeated inputs
// against the same host probe at most once per window.
type LemmyProber struct {
	client  *fetch.Client
	db      *badger.DB
	timeout time.Duration
	ttl     time.Duration

	// probeURL is replaceable in tests; production probes over https.
	probeURL func(host string) string
}

// NewLemmyProber opens the in-memory probe cache.
func NewLemmyProber(client *fetch.Client, cfg config.CrawlConfig) (*LemmyProber, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &LemmyProber{
		client:  client,
		db:      db,
		timeout: cfg.ProbeTimeout,
		ttl:     cfg.ProbeCacheTTL,
		probeURL: func(host string) string {
			return "https://" + host + "/api/v3/site"
		},
	}, nil
}

// Close releases the probe cache.
func (p *LemmyProber) Close() error {
	return p.db.Close()
}

// IsLemmy reports whether host serves the Lemmy API. Probe failures of
// any kind are a negative decision, also cached.
func (p *LemmyProber) IsLemmy(ctx context.Context, host string) bool {
	key := []byte("lemmy-probe:" + host)

	var cached []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		cached, err = item.ValueCopy(nil)
		return err
	})
	if err == nil {
		return len(cached) == 1 && cached[0] == '1'
	}

	result := p.probe(ctx, host)

	val := []byte{'0'}
	if result {
		val = []byte{'1'}
	}
	if err := p.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, val).WithTTL(p.ttl)
		return txn.SetEntry(entry)
	}); err != nil {
		logging.Warn().Err(err).Str("host", host).Msg("Probe cache write failed")
	}

	return result
}

func (p *LemmyProber) probe(ctx context.Context, host string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var payload struct {
		SiteView struct {
			Site struct {
				Name string `json:"name"`
			} `json:"site"`
		} `json:"site_view"`
	}

	if err := p.client.GetJSON(ctx, models.SiteLemmy, p.probeURL(host), &payload); err != nil {
		logging.Debug().Str("host", host).Err(err).Msg("Lemmy probe negative")
		return false
	}

	if payload.SiteView.Site.Name == "" {
		return false
	}

	logging.Debug().Str("host", host).Str("instance", payload.SiteView.Site.Name).
		Msg("Lemmy probe positive")
	return true
}
