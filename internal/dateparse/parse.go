// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package dateparse normalizes the date strings community sites attach to
// posts. Sources mix absolute forms (2026.08.01, 2026-08-01, 08/01) with
// localized relative forms ("5 minutes ago", "5분 전"); the crawl filter
// needs a single instant to compare against the request's date window.
//
// Parsing is best-effort by design: an unparseable string is reported as
// such, and the filter decides whether that matters (it only does when a
// date range is active).
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DayFormat is the canonical day-grain format. Parse(Format(t)) round-trips
// for any day-grain instant.
const DayFormat = "2006-01-02"

// absoluteFormats are tried in order against the cleaned input. Formats
// with 2-component "this year" variants are handled separately because
// they need the current year injected.
var absoluteFormats = []string{
	"2006.01.02 15:04:05",
	"2006-01-02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006.01.02",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
}

// thisYearFormats are 2-component month/day forms; the current year is
// assumed, matching how the source sites render recent dates.
var thisYearFormats = []string{
	"01.02 15:04",
	"01-02 15:04",
	"01.02",
	"01-02",
	"01/02",
}

// relativePattern matches "N <unit> ago" and "N<unit> 전" in English and
// Korean, down to month granularity.
var relativePattern = regexp.MustCompile(
	`^(\d+)\s*(분|시간|일|주|개월|달|minutes?|mins?|min|hours?|hrs?|hr|days?|weeks?|months?|mo)\s*(전|ago)$`)

// timeOnlyPattern matches bare HH:MM clock strings, which sites use for
// posts from the current day.
var timeOnlyPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Parse normalizes a post-date string into an instant relative to the
// current wall clock. The second return is false when the string is not a
// recognized date form.
func Parse(s string) (time.Time, bool) {
	return ParseAt(s, time.Now())
}

// ParseAt is Parse with an explicit "now", used for relative forms and the
// this-year variants. Tests pin now to keep assertions stable.
func ParseAt(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseWordForm(s, now); ok {
		return t, true
	}
	if t, ok := parseRelative(s, now); ok {
		return t, true
	}

	if m := timeOnlyPattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), true
		}
		return time.Time{}, false
	}

	for _, layout := range absoluteFormats {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}

	for _, layout := range thisYearFormats {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), true
		}
	}

	return time.Time{}, false
}

// parseWordForm handles the non-numeric relative words the sources use.
func parseWordForm(s string, now time.Time) (time.Time, bool) {
	switch strings.ToLower(s) {
	case "방금", "방금 전", "just now", "now":
		return now, true
	case "오늘", "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case "어제", "yesterday":
		y := now.AddDate(0, 0, -1)
		return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// parseRelative handles "N minutes ago" / "N분 전" style strings.
func parseRelative(s string, now time.Time) (time.Time, bool) {
	m := relativePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	unit := m[2]
	switch {
	case unit == "분" || strings.HasPrefix(unit, "min"):
		return now.Add(-time.Duration(n) * time.Minute), true
	case unit == "시간" || strings.HasPrefix(unit, "hour") || strings.HasPrefix(unit, "hr"):
		return now.Add(-time.Duration(n) * time.Hour), true
	case unit == "일" || strings.HasPrefix(unit, "day"):
		return now.AddDate(0, 0, -n), true
	case unit == "주" || strings.HasPrefix(unit, "week"):
		return now.AddDate(0, 0, -7*n), true
	case unit == "개월" || unit == "달" || strings.HasPrefix(unit, "month") || unit == "mo":
		return now.AddDate(0, -n, 0), true
	}

	return time.Time{}, false
}

// Format renders an instant at day grain. Parse(Format(t)) returns the
// midnight of t's day.
func Format(t time.Time) string {
	return t.Format(DayFormat)
}
