// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/trawler/internal/boards"
	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/detect"
	"github.com/tomtom215/trawler/internal/dispatch"
	"github.com/tomtom215/trawler/internal/session"
)

func routerWithConfig(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	controller := session.NewController(cfg, detect.NewDetector(nil), dispatch.NewDispatcher(cfg.Crawl), nil, nil, nil)
	handler := NewHandler(controller, boards.NewResolver(t.TempDir()), nil)
	return NewRouter(cfg, handler, controller)
}

func TestRateLimitEnforced(t *testing.T) {
	r := routerWithConfig(t, config.Config{
		Crawl: config.CrawlConfig{MaxRankRange: 100, MaxDateRangeDays: 365},
		Security: config.SecurityConfig{
			RateLimitReqs:   2,
			RateLimitWindow: time.Minute,
		},
	})

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/autocomplete?site=reddit", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first requests = %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func TestCORSPreflight(t *testing.T) {
	r := routerWithConfig(t, config.Config{
		Crawl:    config.CrawlConfig{MaxRankRange: 100, MaxDateRangeDays: 365},
		Security: config.SecurityConfig{RateLimitDisabled: true},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/autocomplete", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestMetricsDisabled(t *testing.T) {
	r := routerWithConfig(t, config.Config{
		Crawl:    config.CrawlConfig{MaxRankRange: 100, MaxDateRangeDays: 365},
		Security: config.SecurityConfig{RateLimitDisabled: true},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with metrics disabled", rec.Code)
	}
}

func TestWebSocketEndpointRejectsPlainGET(t *testing.T) {
	r := routerWithConfig(t, config.Config{
		Crawl:    config.CrawlConfig{MaxRankRange: 100, MaxDateRangeDays: 365},
		Security: config.SecurityConfig{RateLimitDisabled: true},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-upgrade request", rec.Code)
	}
}
