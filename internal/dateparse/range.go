// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package dateparse

import (
	"fmt"
	"time"

	"github.com/tomtom215/trawler/internal/models"
)

// Range maps a coarse time_filter onto an absolute [start, end] window.
//
//   - hour/day/week/month/year: computed backward from now
//   - all (or empty): unbounded, both bounds nil
//   - custom: requires both explicit dates; anything else is
//     invalid_parameters
//
// Explicit start/end dates accompany "custom" and also override the coarse
// window when both are given with another filter value.
func Range(timeFilter, startDate, endDate string) (start, end *time.Time, err error) {
	return RangeAt(timeFilter, startDate, endDate, time.Now())
}

// RangeAt is Range with an explicit "now" for deterministic tests.
func RangeAt(timeFilter, startDate, endDate string, now time.Time) (*time.Time, *time.Time, error) {
	if startDate != "" || endDate != "" {
		return explicitRange(startDate, endDate, now)
	}

	switch timeFilter {
	case "", models.TimeFilterAll:
		return nil, nil, nil
	case models.TimeFilterHour:
		s := now.Add(-time.Hour)
		return &s, &now, nil
	case models.TimeFilterDay:
		s := now.AddDate(0, 0, -1)
		return &s, &now, nil
	case models.TimeFilterWeek:
		s := now.AddDate(0, 0, -7)
		return &s, &now, nil
	case models.TimeFilterMonth:
		s := now.AddDate(0, -1, 0)
		return &s, &now, nil
	case models.TimeFilterYear:
		s := now.AddDate(-1, 0, 0)
		return &s, &now, nil
	case models.TimeFilterCustom:
		return nil, nil, models.NewCrawlError(models.ErrCodeInvalidParameters,
			"time_filter=custom requires start_date and end_date")
	default:
		return nil, nil, models.NewCrawlError(models.ErrCodeInvalidParameters,
			fmt.Sprintf("unknown time_filter %q", timeFilter))
	}
}

// explicitRange parses caller-supplied dates. The end bound is pushed to
// the end of its day so a single-day range covers the whole day.
func explicitRange(startDate, endDate string, now time.Time) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if startDate != "" {
		t, ok := ParseAt(startDate, now)
		if !ok {
			return nil, nil, models.NewCrawlError(models.ErrCodeInvalidParameters,
				fmt.Sprintf("unparseable start_date %q", startDate))
		}
		start = &t
	}

	if endDate != "" {
		t, ok := ParseAt(endDate, now)
		if !ok {
			return nil, nil, models.NewCrawlError(models.ErrCodeInvalidParameters,
				fmt.Sprintf("unparseable end_date %q", endDate))
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			t = t.Add(24*time.Hour - time.Second)
		}
		end = &t
	}

	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, models.NewCrawlError(models.ErrCodeInvalidParameters,
			"end_date precedes start_date")
	}

	return start, end, nil
}
