// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package detect turns a heterogeneous input string (URL, board name,
// free-form keyword) into a site type and a canonical board identifier.
//
// Detection precedence: URL domain-suffix table, dynamic Lemmy instance
// probe (cached), case-folded keyword tokens including localized site
// names, then the universal fallback. Detection never fails; an
// unrecognized input is a universal crawl of the raw string.
package detect

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/tomtom215/trawler/internal/models"
)

// domainSites maps registrable domain suffixes to site types. Longest
// suffix wins so boards.4chan.org beats a hypothetical 4chan.org CDN host.
var domainSites = map[string]string{
	"reddit.com":       models.SiteReddit,
	"redd.it":          models.SiteReddit,
	"dcinside.com":     models.SiteDCInside,
	"teamblind.com":    models.SiteBlind,
	"bbc.com":          models.SiteBBC,
	"bbc.co.uk":        models.SiteBBC,
	"4chan.org":        models.SiteFourChan,
	"4channel.org":     models.SiteFourChan,
	"x.com":            models.SiteX,
	"twitter.com":      models.SiteX,
	"lemmy.world":      models.SiteLemmy,
	"lemmy.ml":         models.SiteLemmy,
	"programming.dev":  models.SiteLemmy,
	"lemm.ee":          models.SiteLemmy,
	"sh.itjust.works":  models.SiteLemmy,
	"beehaw.org":       models.SiteLemmy,
	"lemmy.ca":         models.SiteLemmy,
	"feddit.org":       models.SiteLemmy,
	"lemmy.dbzer0.com": models.SiteLemmy,
}

// keywordSites maps case-folded tokens to site types. Localized names
// included so "디시인사이드 프로그래밍" detects without a URL.
var keywordSites = map[string]string{
	"reddit":    models.SiteReddit,
	"subreddit": models.SiteReddit,
	"레딧":        models.SiteReddit,
	"dcinside":  models.SiteDCInside,
	"dc인사이드":    models.SiteDCInside,
	"디시인사이드":    models.SiteDCInside,
	"디시":        models.SiteDCInside,
	"디씨":        models.SiteDCInside,
	"blind":     models.SiteBlind,
	"블라인드":      models.SiteBlind,
	"bbc":       models.SiteBBC,
	"lemmy":     models.SiteLemmy,
	"레미":        models.SiteLemmy,
	"4chan":     models.SiteFourChan,
	"포챈":        models.SiteFourChan,
	"twitter":   models.SiteX,
	"트위터":       models.SiteX,
}

// Identifier shape patterns checked before the universal fallback. These
// also make extracted identifiers re-detectable: detect(extract(x))
// lands on the same site.
var (
	subredditPattern = regexp.MustCompile(`^/?r/[A-Za-z0-9_]+$`)
	communityPattern = regexp.MustCompile(`^!?[A-Za-z0-9_]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	boardCodePattern = regexp.MustCompile(`^/[a-z0-9]{1,5}/$`)
	handlePattern    = regexp.MustCompile(`^[@#][A-Za-z0-9_가-힣]+$`)
)

// Prober decides whether a host is a Lemmy instance.
type Prober interface {
	IsLemmy(ctx context.Context, host string) bool
}

// Detector resolves inputs to site types and board identifiers.
type Detector struct {
	prober Prober
}

// NewDetector builds a detector. prober may be nil; unknown hosts then
// fall through to universal without probing.
func NewDetector(prober Prober) *Detector {
	return &Detector{prober: prober}
}

// Detect returns the site type for an input. Never fails; the fallback
// is universal.
func (d *Detector) Detect(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return models.SiteUniversal
	}

	if host := hostOf(input); host != "" {
		if site, ok := siteForHost(host); ok {
			return site
		}
		if d.prober != nil && d.prober.IsLemmy(ctx, host) {
			return models.SiteLemmy
		}
		return models.SiteUniversal
	}

	if site, ok := siteForShape(input); ok {
		return site
	}

	folded := strings.ToLower(input)
	for token, site := range keywordSites {
		if strings.Contains(folded, token) {
			return site
		}
	}

	return models.SiteUniversal
}

// siteForShape matches bare identifier forms (r/name, community@host,
// /g/, @handle) that carry their site without a URL or keyword.
func siteForShape(input string) (string, bool) {
	switch {
	case subredditPattern.MatchString(input):
		return models.SiteReddit, true
	case communityPattern.MatchString(input):
		return models.SiteLemmy, true
	case boardCodePattern.MatchString(input):
		return models.SiteFourChan, true
	case handlePattern.MatchString(input):
		return models.SiteX, true
	}
	return "", false
}

// hostOf extracts a host from URL-shaped input. Bare domains without a
// scheme ("www.reddit.com/r/golang") still parse.
func hostOf(input string) string {
	if strings.Contains(input, " ") {
		return ""
	}

	raw := input
	if !strings.Contains(raw, "://") {
		if !strings.Contains(raw, ".") || strings.HasPrefix(raw, ".") {
			return ""
		}
		// Identifier forms like community@host are not URLs.
		authority := raw
		if i := strings.Index(raw, "/"); i >= 0 {
			authority = raw[:i]
		}
		if strings.ContainsAny(authority, "@#") {
			return ""
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	// A "host" with no dot is a keyword that happened to parse.
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}

func siteForHost(host string) (string, bool) {
	for suffix, site := range domainSites {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return site, true
		}
	}
	return "", false
}
