// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package models

// Site type identifiers. These are the values carried in Post.Site, in
// progress frames, and as site labels on metrics.
const (
	SiteReddit    = "reddit"
	SiteDCInside  = "dcinside"
	SiteBlind     = "blind"
	SiteBBC       = "bbc"
	SiteLemmy     = "lemmy"
	SiteFourChan  = "4chan"
	SiteX         = "x"
	SiteUniversal = "universal"
)

// Sort vocabulary normalized at the dispatcher. Adapters additionally accept
// their native sort tokens.
const (
	SortHot    = "hot"
	SortNew    = "new"
	SortTop    = "top"
	SortRising = "rising"
	SortBest   = "best"
)

// Time filter values accepted in crawl requests.
const (
	TimeFilterHour   = "hour"
	TimeFilterDay    = "day"
	TimeFilterWeek   = "week"
	TimeFilterMonth  = "month"
	TimeFilterYear   = "year"
	TimeFilterAll    = "all"
	TimeFilterCustom = "custom"
)

// CrawlRequest is the single configuration frame a client sends when the
// WebSocket session opens. Field names are the wire contract.
type CrawlRequest struct {
	// Input is a URL, a board/community name, or a free-form keyword.
	Input string `json:"input" validate:"required,min=1,max=2048"`

	Sort       string `json:"sort,omitempty" validate:"omitempty,max=32"`
	Start      int    `json:"start,omitempty" validate:"omitempty,min=1"`
	End        int    `json:"end,omitempty" validate:"omitempty,min=1"`
	MinViews   int    `json:"min_views,omitempty" validate:"omitempty,min=0"`
	MinLikes   int    `json:"min_likes,omitempty" validate:"omitempty,min=0"`
	MinComment int    `json:"min_comments,omitempty" validate:"omitempty,min=0"`

	TimeFilter string `json:"time_filter,omitempty" validate:"omitempty,oneof=hour day week month year all custom"`
	StartDate  string `json:"start_date,omitempty" validate:"omitempty,max=32"`
	EndDate    string `json:"end_date,omitempty" validate:"omitempty,max=32"`

	Translate       bool     `json:"translate,omitempty"`
	TargetLanguages []string `json:"target_languages,omitempty" validate:"omitempty,dive,min=2,max=8"`
	SkipTranslation bool     `json:"skip_translation,omitempty"`

	// Language is the UI locale used to render localized error reasons.
	// The machine error_code is never localized.
	Language string `json:"language,omitempty" validate:"omitempty,oneof=en ko"`

	IncludeMedia bool `json:"include_media,omitempty"`
	IncludeNSFW  bool `json:"include_nsfw,omitempty"`
}

// CrawlOptions is the validated, per-adapter view of a request produced by
// the dispatcher. Adapters consume the subset of fields they support and
// ignore the rest.
type CrawlOptions struct {
	Board      string
	Sort       string
	TimeFilter string
	StartDate  string
	EndDate    string

	MinViews    int
	MinLikes    int
	MinComments int

	StartIndex int
	EndIndex   int

	// Limit is an optional hard cap on posts to request per page where the
	// source supports one; 0 means the adapter default.
	Limit int

	EnforceDateLimit bool
	IncludeMedia     bool
	IncludeNSFW      bool
}

// TargetCount returns the number of posts the requested rank range spans.
func (o CrawlOptions) TargetCount() int {
	if o.EndIndex < o.StartIndex {
		return 0
	}
	return o.EndIndex - o.StartIndex + 1
}

// HasMetricFilters reports whether any minimum-engagement filter is active.
func (o CrawlOptions) HasMetricFilters() bool {
	return o.MinViews > 0 || o.MinLikes > 0 || o.MinComments > 0
}

// HasDateFilter reports whether the request carries an explicit or derived
// date window.
func (o CrawlOptions) HasDateFilter() bool {
	if o.StartDate != "" || o.EndDate != "" {
		return true
	}
	return o.TimeFilter != "" && o.TimeFilter != TimeFilterAll
}

// HasFilters reports whether any post-level filter is active. The crawl
// engine uses this to pick its page budget.
func (o CrawlOptions) HasFilters() bool {
	return o.HasMetricFilters() || o.HasDateFilter()
}
