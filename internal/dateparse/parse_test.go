// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package dateparse

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/trawler/internal/models"
)

// now is pinned so relative and this-year forms are deterministic.
var now = time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)

func TestParseAbsolute(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026.08.01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-08-01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"2026/08/01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-08-01 09:30", time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)},
		{"2026.08.01 09:30:15", time.Date(2026, 8, 1, 9, 30, 15, 0, time.UTC)},
		{"08.01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"08/01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"08-01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAt(tt.in, now)
			if !ok {
				t.Fatalf("ParseAt(%q) not ok", tt.in)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimeOnly(t *testing.T) {
	got, ok := ParseAt("09:45", now)
	if !ok {
		t.Fatal("ParseAt(09:45) not ok")
	}
	want := time.Date(2026, 8, 15, 9, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, ok := ParseAt("25:00", now); ok {
		t.Error("ParseAt(25:00) should fail")
	}
}

func TestParseRelative(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"5 minutes ago", now.Add(-5 * time.Minute)},
		{"1 min ago", now.Add(-time.Minute)},
		{"3 hours ago", now.Add(-3 * time.Hour)},
		{"2 days ago", now.AddDate(0, 0, -2)},
		{"1 week ago", now.AddDate(0, 0, -7)},
		{"2 months ago", now.AddDate(0, -2, 0)},
		{"5분 전", now.Add(-5 * time.Minute)},
		{"3시간 전", now.Add(-3 * time.Hour)},
		{"2일 전", now.AddDate(0, 0, -2)},
		{"1주 전", now.AddDate(0, 0, -7)},
		{"2개월 전", now.AddDate(0, -2, 0)},
		{"1달 전", now.AddDate(0, -1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAt(tt.in, now)
			if !ok {
				t.Fatalf("ParseAt(%q) not ok", tt.in)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseWordForms(t *testing.T) {
	today := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", today},
		{"오늘", today},
		{"yesterday", yesterday},
		{"어제", yesterday},
		{"just now", now},
		{"방금", now},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAt(tt.in, now)
			if !ok {
				t.Fatalf("ParseAt(%q) not ok", tt.in)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "not a date", "soon", "ago"} {
		if _, ok := ParseAt(in, now); ok {
			t.Errorf("ParseAt(%q) unexpectedly ok", in)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	grains := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	for _, want := range grains {
		got, ok := ParseAt(Format(want), now)
		if !ok {
			t.Fatalf("round trip parse failed for %v", want)
		}
		if !got.Equal(want) {
			t.Errorf("Parse(Format(%v)) = %v", want, got)
		}
	}
}

func TestRangeCoarseFilters(t *testing.T) {
	tests := []struct {
		filter string
		want   time.Time
	}{
		{models.TimeFilterHour, now.Add(-time.Hour)},
		{models.TimeFilterDay, now.AddDate(0, 0, -1)},
		{models.TimeFilterWeek, now.AddDate(0, 0, -7)},
		{models.TimeFilterMonth, now.AddDate(0, -1, 0)},
		{models.TimeFilterYear, now.AddDate(-1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			start, end, err := RangeAt(tt.filter, "", "", now)
			if err != nil {
				t.Fatalf("RangeAt: %v", err)
			}
			if start == nil || end == nil {
				t.Fatal("expected bounded range")
			}
			if !start.Equal(tt.want) {
				t.Errorf("start = %v, want %v", start, tt.want)
			}
			if !end.Equal(now) {
				t.Errorf("end = %v, want now", end)
			}
		})
	}
}

func TestRangeAll(t *testing.T) {
	start, end, err := RangeAt(models.TimeFilterAll, "", "", now)
	if err != nil {
		t.Fatalf("RangeAt: %v", err)
	}
	if start != nil || end != nil {
		t.Error("all should be unbounded")
	}
}

func TestRangeCustomRequiresDates(t *testing.T) {
	_, _, err := RangeAt(models.TimeFilterCustom, "", "", now)
	if err == nil {
		t.Fatal("expected error")
	}

	var ce *models.CrawlError
	if !errors.As(err, &ce) || ce.Code != models.ErrCodeInvalidParameters {
		t.Errorf("expected invalid_parameters, got %v", err)
	}
}

func TestRangeExplicitDates(t *testing.T) {
	start, end, err := RangeAt(models.TimeFilterCustom, "2026-08-01", "2026-08-10", now)
	if err != nil {
		t.Fatalf("RangeAt: %v", err)
	}

	wantStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	// End-of-day so a day-grain end date covers its whole day.
	wantEnd := time.Date(2026, 8, 10, 23, 59, 59, 0, time.UTC)
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestRangeInvertedDatesRejected(t *testing.T) {
	_, _, err := RangeAt("", "2026-08-10", "2026-08-01", now)
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestRangeUnknownFilterRejected(t *testing.T) {
	_, _, err := RangeAt("fortnight", "", "", now)
	if err == nil {
		t.Fatal("expected error for unknown filter")
	}
}
