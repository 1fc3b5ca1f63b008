// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package models

import (
	"path"
	"strings"
	"time"
)

// Post is the canonical post record. Every site adapter emits this shape
// regardless of source; fields a source does not expose stay at their zero
// value (metrics are never negative).
//
// Invariants:
//   - Link is always set
//   - Views, Score and Comments are >= 0
//   - Rank is unique within a single crawl result and assigned after
//     filtering and range slicing, never by the adapter's raw parse
type Post struct {
	// Rank is the 1-based position after filter + slice, starting at the
	// request's start_index.
	Rank int `json:"rank"`

	TitleOriginal   string `json:"title_original"`
	TitleTranslated string `json:"title_translated,omitempty"`

	// Link is the canonical in-site URL of the post.
	Link string `json:"link"`

	// ExternalURL is set when the post links off-site (e.g. a reddit link
	// post pointing at an article).
	ExternalURL string `json:"external_url,omitempty"`

	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// MediaURL is the full-resolution media asset, when one exists.
	MediaURL string `json:"media_url,omitempty"`

	// Body is a short preview of the post body, or empty.
	Body string `json:"body"`

	Views    int `json:"views"`
	Score    int `json:"score"`
	Comments int `json:"comments"`

	// CreatedAt is the date string exactly as the source provided it.
	// CreatedTime carries the normalized instant when parsing succeeded.
	CreatedAt   string     `json:"created_at"`
	CreatedTime *time.Time `json:"created_time,omitempty"`

	Author string `json:"author,omitempty"`
	Board  string `json:"board"`
	Site   string `json:"site"`

	// Extras is an open key/value map for adapter-specific fields
	// (flair, NSFW flag, attachment URLs, ...).
	Extras map[string]interface{} `json:"extras,omitempty"`
}

// imageExtensions are the extensions treated as directly displayable images
// for the thumbnail fallback rule.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// HasImageURL reports whether the URL's path ends in a known image extension.
func HasImageURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

// NormalizeThumbnail applies the thumbnail fallback rule: when MediaURL is
// set and is a known image type but no thumbnail was extracted, the media
// URL doubles as the thumbnail.
func (p *Post) NormalizeThumbnail() {
	if p.ThumbnailURL == "" && HasImageURL(p.MediaURL) {
		p.ThumbnailURL = p.MediaURL
	}
}

// Extra returns the string value of an extras key, or "" when absent or
// not a string.
func (p *Post) Extra(key string) string {
	if p.Extras == nil {
		return ""
	}
	if v, ok := p.Extras[key].(string); ok {
		return v
	}
	return ""
}

// SetExtra stores an adapter-specific field, allocating the map on first use.
func (p *Post) SetExtra(key string, value interface{}) {
	if p.Extras == nil {
		p.Extras = make(map[string]interface{})
	}
	p.Extras[key] = value
}
