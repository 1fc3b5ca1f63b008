// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package filter implements the post-level filter predicate and the
// early-stop heuristic shared by every crawl.
package filter

import (
	"time"

	"github.com/tomtom215/trawler/internal/dateparse"
	"github.com/tomtom215/trawler/internal/models"
)

// Reason tags name the first failing condition. They are consumed only by
// the early-stop heuristic and debug logging, never by clients.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonViews     Reason = "views"
	ReasonLikes     Reason = "likes"
	ReasonComments  Reason = "comments"
	ReasonDateParse Reason = "date_parse"
	ReasonDateRange Reason = "date_range"
)

// Stop thresholds. Date-filtered crawls walk in reverse chronology, so a
// run of misses means the window is behind us; unfiltered crawls tolerate
// more noise before giving up.
const (
	stopWithDateFilter    = 10
	stopWithoutDateFilter = 20
)

// Predicate is the (min_views, min_likes, min_comments, date-range) filter
// applied to every post a crawl sees.
type Predicate struct {
	MinViews    int
	MinLikes    int
	MinComments int
	Start       *time.Time
	End         *time.Time
}

// FromOptions builds the predicate for a validated request, resolving the
// coarse time_filter into an absolute window.
func FromOptions(opts models.CrawlOptions) (Predicate, error) {
	start, end, err := dateparse.Range(opts.TimeFilter, opts.StartDate, opts.EndDate)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{
		MinViews:    opts.MinViews,
		MinLikes:    opts.MinLikes,
		MinComments: opts.MinComments,
		Start:       start,
		End:         end,
	}, nil
}

// Check applies the predicate. It returns false with the first failing
// condition's reason; condition order is views, likes, comments, date.
// A post with an unparseable date fails only when a date range is active.
func (p Predicate) Check(post *models.Post) (bool, Reason) {
	if post.Views < p.MinViews {
		return false, ReasonViews
	}
	if post.Score < p.MinLikes {
		return false, ReasonLikes
	}
	if post.Comments < p.MinComments {
		return false, ReasonComments
	}

	if !p.HasDateFilter() {
		return true, ReasonNone
	}

	created := post.CreatedTime
	if created == nil {
		if t, ok := dateparse.Parse(post.CreatedAt); ok {
			created = &t
		}
	}
	if created == nil {
		return false, ReasonDateParse
	}

	if p.Start != nil && created.Before(*p.Start) {
		return false, ReasonDateRange
	}
	if p.End != nil && created.After(*p.End) {
		return false, ReasonDateRange
	}

	return true, ReasonNone
}

// HasDateFilter reports whether a date window is active.
func (p Predicate) HasDateFilter() bool {
	return p.Start != nil || p.End != nil
}

// Active reports whether the predicate can reject anything at all.
func (p Predicate) Active() bool {
	return p.MinViews > 0 || p.MinLikes > 0 || p.MinComments > 0 || p.HasDateFilter()
}

// ShouldStop is the early-stop heuristic: a crawl gives up after 10
// consecutive predicate failures when a date filter is active, 20 without.
func ShouldStop(consecutiveFails int, hasDateFilter bool) bool {
	if hasDateFilter {
		return consecutiveFails >= stopWithDateFilter
	}
	return consecutiveFails >= stopWithoutDateFilter
}
