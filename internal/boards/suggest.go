// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package boards

import (
	"sort"
	"strings"

	"github.com/tomtom215/trawler/internal/models"
)

// MaxSuggestions caps autocomplete results.
const MaxSuggestions = 15

// Static suggestion lists for sites without lookup tables.
var (
	redditSuggestions = []string{
		"r/all", "r/popular", "r/news", "r/worldnews", "r/technology",
		"r/programming", "r/golang", "r/gaming", "r/movies", "r/science",
		"r/askreddit", "r/pics", "r/videos", "r/music", "r/sports",
	}
	lemmySuggestions = []string{
		"technology@lemmy.world", "worldnews@lemmy.ml", "asklemmy@lemmy.ml",
		"programming@programming.dev", "linux@lemmy.ml", "games@lemmy.world",
		"news@lemmy.world", "memes@lemmy.ml", "science@lemmy.world",
		"opensource@lemmy.ml",
	}
	fourChanSuggestions = []string{
		"a", "b", "g", "v", "k", "o", "sci", "tv", "mu", "fit", "pol", "int",
		"biz", "diy", "ck",
	}
	bbcSuggestions = []string{
		"news", "sport", "business", "innovation", "culture", "travel",
		"future-planet",
	}
)

// Suggest returns up to limit board-name suggestions for a site matching
// keyword. Sites with lookup tables draw from them; the rest use small
// static lists. An unknown site or an over-large limit is clamped, never
// an error.
func (r *Resolver) Suggest(site, keyword string, limit int) []string {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}
	folded := strings.ToLower(strings.TrimSpace(keyword))

	switch site {
	case models.SiteDCInside:
		r.loadDCInside()
		return matchNames(galleryNames(r.galleries), folded, limit)
	case models.SiteBlind:
		r.loadBlind()
		return matchNames(topicNames(r.topics), folded, limit)
	case models.SiteReddit:
		return matchStatic(redditSuggestions, folded, limit)
	case models.SiteLemmy:
		return matchStatic(lemmySuggestions, folded, limit)
	case models.SiteFourChan:
		return matchStatic(fourChanSuggestions, folded, limit)
	case models.SiteBBC:
		return matchStatic(bbcSuggestions, folded, limit)
	default:
		return nil
	}
}

func galleryNames(galleries map[string]Gallery) []string {
	names := make([]string, 0, len(galleries))
	for name := range galleries {
		names = append(names, name)
	}
	return names
}

func topicNames(topics map[string]string) []string {
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	return names
}

// matchNames filters and ranks table names: prefix matches first, then
// substring matches, shortest names first within each class.
func matchNames(names []string, folded string, limit int) []string {
	type ranked struct {
		name   string
		prefix bool
	}

	var matches []ranked
	for _, name := range names {
		lower := strings.ToLower(name)
		switch {
		case folded == "":
			matches = append(matches, ranked{name: name})
		case strings.HasPrefix(lower, folded):
			matches = append(matches, ranked{name: name, prefix: true})
		case strings.Contains(lower, folded):
			matches = append(matches, ranked{name: name})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.prefix != b.prefix {
			return a.prefix
		}
		if len(a.name) != len(b.name) {
			return len(a.name) < len(b.name)
		}
		return a.name < b.name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func matchStatic(list []string, folded string, limit int) []string {
	var out []string
	for _, name := range list {
		if folded == "" || strings.Contains(strings.ToLower(name), folded) {
			out = append(out, name)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
