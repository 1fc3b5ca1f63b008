// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package detect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/tomtom215/trawler/internal/models"
)

// Per-site extraction regexes. Extracted identifiers use re-detectable
// canonical forms (r/name, community@host, /g/) so that feeding an
// extracted identifier back through Detect lands on the same site.
var (
	subredditPath  = regexp.MustCompile(`/r/([A-Za-z0-9_]+)`)
	galleryIDQuery = regexp.MustCompile(`[?&]id=([^&#]+)`)
	blindTopicPath = regexp.MustCompile(`/topics/([^/?#]+)`)
	communityPath  = regexp.MustCompile(`/c/([^/?#@]+)`)
	fourChanPath   = regexp.MustCompile(`^/([a-z0-9]{1,5})(?:/|$)`)
	xHandlePath    = regexp.MustCompile(`^/([A-Za-z0-9_]+)`)
	hashtagQuery   = regexp.MustCompile(`[?&]q=(?:%23|#)([^&#]+)`)
	hashtagPath    = regexp.MustCompile(`/hashtag/([^/?#]+)`)
)

// ExtractBoard returns the canonical board identifier for an input under
// an already-detected site type. Keyword inputs are stripped of the site
// token ("디시인사이드 프로그래밍" keeps only "프로그래밍"); URL inputs use
// per-site path and query rules. Universal returns the raw input.
func (d *Detector) ExtractBoard(input, site string) string {
	input = strings.TrimSpace(input)

	switch site {
	case models.SiteReddit:
		return extractSubreddit(input)
	case models.SiteDCInside:
		return extractGallery(input)
	case models.SiteBlind:
		return extractTopic(input)
	case models.SiteBBC:
		return extractSection(input)
	case models.SiteLemmy:
		return extractCommunity(input)
	case models.SiteFourChan:
		return extractBoardCode(input)
	case models.SiteX:
		return extractHandle(input)
	default:
		return input
	}
}

func extractSubreddit(input string) string {
	if m := subredditPath.FindStringSubmatch(input); m != nil {
		return "r/" + m[1]
	}
	stripped := stripSiteTokens(input)
	if stripped == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(stripped), "r/") {
		return "r/" + stripped[2:]
	}
	return "r/" + stripped
}

func extractGallery(input string) string {
	if m := galleryIDQuery.FindStringSubmatch(input); m != nil {
		if id, err := url.QueryUnescape(m[1]); err == nil {
			return id
		}
		return m[1]
	}
	return stripSiteTokens(input)
}

func extractTopic(input string) string {
	if m := blindTopicPath.FindStringSubmatch(input); m != nil {
		if id, err := url.PathUnescape(m[1]); err == nil {
			return id
		}
		return m[1]
	}
	return stripSiteTokens(input)
}

// extractSection returns the BBC section from a URL path; an empty board
// is valid (the adapter crawls the front page).
func extractSection(input string) string {
	if host := hostOf(input); host != "" {
		path := pathOf(input)
		path = strings.Trim(path, "/")
		if path == "" {
			return ""
		}
		return strings.SplitN(path, "/", 2)[0]
	}
	return stripSiteTokens(input)
}

func extractCommunity(input string) string {
	if host := hostOf(input); host != "" {
		if m := communityPath.FindStringSubmatch(input); m != nil {
			community := m[1]
			// A /c/community@other form already names its instance.
			if strings.Contains(community, "@") {
				return community
			}
			return community + "@" + host
		}
		return ""
	}

	stripped := strings.TrimPrefix(stripSiteTokens(input), "!")
	return stripped
}

func extractBoardCode(input string) string {
	if host := hostOf(input); host != "" {
		if m := fourChanPath.FindStringSubmatch(pathOf(input)); m != nil {
			return "/" + m[1] + "/"
		}
		return ""
	}

	stripped := stripSiteTokens(input)
	code := strings.Trim(stripped, "/")
	if code == "" {
		return ""
	}
	return "/" + code + "/"
}

func extractHandle(input string) string {
	if host := hostOf(input); host != "" {
		if m := hashtagQuery.FindStringSubmatch(input); m != nil {
			if tag, err := url.QueryUnescape(m[1]); err == nil {
				return "#" + tag
			}
			return "#" + m[1]
		}
		path := pathOf(input)
		if m := xHandlePath.FindStringSubmatch(path); m != nil {
			switch strings.ToLower(m[1]) {
			case "search", "hashtag", "home", "explore", "i":
				if tag := hashtagPath.FindStringSubmatch(path); tag != nil {
					return "#" + tag[1]
				}
				return ""
			}
			return "@" + m[1]
		}
		return ""
	}

	stripped := stripSiteTokens(input)
	if stripped == "" {
		return ""
	}
	if strings.HasPrefix(stripped, "@") || strings.HasPrefix(stripped, "#") {
		return stripped
	}
	return stripped
}

// stripSiteTokens removes site-name words from a keyword input, leaving
// the board keyword ("블라인드 개발자" -> "개발자").
func stripSiteTokens(input string) string {
	fields := strings.Fields(input)
	var kept []string
	for _, f := range fields {
		if _, ok := keywordSites[strings.ToLower(f)]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func pathOf(input string) string {
	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}
