// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package media scans crawl results for attached media, downloads the files
// under concurrency and size bounds, and packages them into a single ZIP
// retrievable for a few hours through the download endpoint.
package media

import (
	"net/url"
	"path"
	"strings"

	"github.com/tomtom215/trawler/internal/models"
)

// mediaExtensions is the set of file extensions accepted regardless of host.
var mediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true,
}

// mediaHosts are hosting domains whose URLs are accepted even without a
// recognizable extension.
var mediaHosts = []string{
	"imgur.com",
	"i.redd.it",
	"v.redd.it",
	"pinimg.com",
	"youtube.com",
	"youtu.be",
	"streamable.com",
	"giphy.com",
	"gfycat.com",
	"cdn.discordapp.com",
}

// extrasURLKeys are the open-map fields adapters use for attachments.
var extrasURLKeys = []string{"image_url", "attachment_url"}

// IsMediaURL reports whether a URL looks downloadable: http(s) scheme and
// either a known media extension or a whitelisted hosting domain.
func IsMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	if mediaExtensions[strings.ToLower(path.Ext(u.Path))] {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range mediaHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// CandidateURLs collects the valid media URLs across a result set, in post
// order, deduplicated.
func CandidateURLs(posts []models.Post) []string {
	seen := make(map[string]bool)
	var urls []string

	add := func(raw string) {
		if raw == "" || seen[raw] || !IsMediaURL(raw) {
			return
		}
		seen[raw] = true
		urls = append(urls, raw)
	}

	for i := range posts {
		p := &posts[i]
		add(p.MediaURL)
		add(p.ThumbnailURL)
		for _, key := range extrasURLKeys {
			add(p.Extra(key))
		}
		if list, ok := p.Extras["attachment_urls"].([]string); ok {
			for _, raw := range list {
				add(raw)
			}
		}
		if list, ok := p.Extras["attachment_urls"].([]interface{}); ok {
			for _, v := range list {
				if raw, ok := v.(string); ok {
					add(raw)
				}
			}
		}
	}

	return urls
}
