// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package sites contains the per-site adapters. Each adapter translates
// one community site (API or scraped HTML) into the shared Post shape and
// runs its pagination through the crawl engine. Adapters consume the
// subset of crawl options their site supports and ignore the rest.
package sites

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/models"
)

// Adapter is the common site contract. Fetch returns the posts of the
// requested rank range, already filtered, sliced and ranked.
type Adapter interface {
	Site() string
	Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error)
}

var digitsPattern = regexp.MustCompile(`\d[\d,.]*`)

// parseCount extracts the first numeric run from a string, tolerating
// comma separators and the k/m/만 shorthand scraped sites use.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}

	m := digitsPattern.FindString(s)
	if m == "" {
		return 0
	}

	multiplier := 1.0
	rest := strings.ToLower(s[strings.Index(s, m)+len(m):])
	switch {
	case strings.HasPrefix(rest, "k"), strings.HasPrefix(rest, "천"):
		multiplier = 1e3
	case strings.HasPrefix(rest, "m"):
		multiplier = 1e6
	case strings.HasPrefix(rest, "만"):
		multiplier = 1e4
	}

	if multiplier == 1.0 {
		n, err := strconv.Atoi(strings.ReplaceAll(strings.SplitN(m, ".", 2)[0], ",", ""))
		if err != nil {
			return 0
		}
		return n
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return int(f * multiplier)
}

// firstCount tries a ranked list of selectors under sel and returns the
// first one that yields a numeric run. Scraped sites shuffle their class
// names; the fallback chain keeps old and new layouts working.
func firstCount(sel *goquery.Selection, selectors ...string) int {
	for _, s := range selectors {
		node := sel.Find(s).First()
		if node.Length() == 0 {
			continue
		}
		text := node.Text()
		if text == "" {
			if alt, ok := node.Attr("title"); ok {
				text = alt
			}
		}
		if digitsPattern.MatchString(text) {
			return parseCount(text)
		}
	}
	return 0
}

// firstText returns the first non-empty trimmed text among selectors.
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if text := strings.TrimSpace(sel.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// absoluteURL resolves href against base, returning href unchanged when
// it is already absolute or base does not parse.
func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
