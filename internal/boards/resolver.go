// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package boards resolves human-readable board keywords to site-internal
// identifiers for sites that use opaque ids (DCInside galleries, Blind
// topics). Lookup tables are JSON files loaded lazily from a configured
// directory; a missing table is tolerated at load time and surfaces as a
// resolution failure only when an adapter actually needs it.
package boards

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/models"
)

const (
	// GalleryRegular is a standard DCInside gallery.
	GalleryRegular = "regular"
	// GalleryMinor is a user-created minor gallery served under /mgallery/.
	GalleryMinor = "minor"
)

// Table file names looked up under the resolver directory.
const (
	dcinsideTableFile = "dcinside_galleries.json"
	blindTableFile    = "blind_topics.json"
)

// Gallery is a resolved DCInside gallery.
type Gallery struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Minor reports whether the gallery lives under the /mgallery/ URL scheme.
func (g Gallery) Minor() bool { return g.Type == GalleryMinor }

// Resolver maps board keywords to internal identifiers using on-disk
// lookup tables. Tables load once on first use; the zero directory uses
// the working directory.
type Resolver struct {
	dir string

	dcOnce    sync.Once
	galleries map[string]Gallery

	blindOnce sync.Once
	topics    map[string]string
}

// NewResolver creates a resolver reading tables from dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// loadDCInside reads the gallery table. Absence is non-fatal: resolution
// against an empty table fails per-request instead.
func (r *Resolver) loadDCInside() {
	r.dcOnce.Do(func() {
		r.galleries = map[string]Gallery{}
		path := filepath.Join(r.dir, dcinsideTableFile)

		data, err := os.ReadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).
				Msg("DCInside gallery table unavailable")
			return
		}

		if err := json.Unmarshal(data, &r.galleries); err != nil {
			logging.Warn().Err(err).Str("path", path).
				Msg("DCInside gallery table malformed")
			r.galleries = map[string]Gallery{}
			return
		}

		logging.Info().Int("galleries", len(r.galleries)).
			Msg("DCInside gallery table loaded")
	})
}

// loadBlind reads the topic table.
func (r *Resolver) loadBlind() {
	r.blindOnce.Do(func() {
		r.topics = map[string]string{}
		path := filepath.Join(r.dir, blindTableFile)

		data, err := os.ReadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).
				Msg("Blind topic table unavailable")
			return
		}

		if err := json.Unmarshal(data, &r.topics); err != nil {
			logging.Warn().Err(err).Str("path", path).
				Msg("Blind topic table malformed")
			r.topics = map[string]string{}
			return
		}

		logging.Info().Int("topics", len(r.topics)).
			Msg("Blind topic table loaded")
	})
}

// ResolveGallery maps a keyword to a DCInside gallery. Resolution order:
// exact id, exact display name (case-folded), then substring match ranked
// by shortest matching name with minor galleries preferred. A miss is a
// hard error, never a raw-input passthrough.
func (r *Resolver) ResolveGallery(keyword string) (Gallery, error) {
	r.loadDCInside()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Gallery{}, &models.CrawlError{
			Code: models.ErrCodeInvalidParameters, Detail: "empty gallery keyword",
			Site: models.SiteDCInside,
		}
	}

	for _, g := range r.galleries {
		if g.ID == keyword {
			return g, nil
		}
	}

	folded := strings.ToLower(keyword)
	for name, g := range r.galleries {
		if strings.ToLower(name) == folded {
			return g, nil
		}
	}

	if g, ok := substringMatch(r.galleries, folded); ok {
		return g, nil
	}

	return Gallery{}, &models.CrawlError{
		Code: models.ErrCodeInvalidParameters, Detail: fmt.Sprintf("no gallery matches %q", keyword),
		Site: models.SiteDCInside,
	}
}

// ResolveTopic maps a keyword to a Blind topic id using the same
// precedence as gallery resolution.
func (r *Resolver) ResolveTopic(keyword string) (string, error) {
	r.loadBlind()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", &models.CrawlError{
			Code: models.ErrCodeInvalidParameters, Detail: "empty topic keyword",
			Site: models.SiteBlind,
		}
	}

	for _, id := range r.topics {
		if id == keyword {
			return keyword, nil
		}
	}

	folded := strings.ToLower(keyword)
	for name, id := range r.topics {
		if strings.ToLower(name) == folded {
			return id, nil
		}
	}

	var (
		bestName string
		bestID   string
	)
	for name, id := range r.topics {
		if !strings.Contains(strings.ToLower(name), folded) {
			continue
		}
		if bestName == "" || shorterOrEarlier(name, bestName) {
			bestName, bestID = name, id
		}
	}
	if bestName != "" {
		return bestID, nil
	}

	return "", &models.CrawlError{
		Code: models.ErrCodeInvalidParameters, Detail: fmt.Sprintf("no topic matches %q", keyword),
		Site: models.SiteBlind,
	}
}

// substringMatch finds the best substring match in the gallery table.
// Shorter names rank first; among equal lengths minor galleries win, then
// lexicographic order keeps the choice deterministic.
func substringMatch(galleries map[string]Gallery, folded string) (Gallery, bool) {
	type candidate struct {
		name string
		g    Gallery
	}

	var matches []candidate
	for name, g := range galleries {
		if strings.Contains(strings.ToLower(name), folded) {
			matches = append(matches, candidate{name: name, g: g})
		}
	}
	if len(matches) == 0 {
		return Gallery{}, false
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if len(a.name) != len(b.name) {
			return len(a.name) < len(b.name)
		}
		if a.g.Minor() != b.g.Minor() {
			return a.g.Minor()
		}
		return a.name < b.name
	})

	return matches[0].g, true
}

func shorterOrEarlier(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
