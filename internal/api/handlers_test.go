// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/trawler/internal/boards"
	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/detect"
	"github.com/tomtom215/trawler/internal/dispatch"
	"github.com/tomtom215/trawler/internal/media"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/session"
)

func testRouter(t *testing.T) (http.Handler, *media.Packager) {
	t.Helper()

	cfg := config.Config{
		Crawl:    config.CrawlConfig{MaxRankRange: 100, MaxDateRangeDays: 365},
		Security: config.SecurityConfig{RateLimitDisabled: true},
		Metrics:  config.MetricsConfig{Enabled: true},
	}

	boardsDir := t.TempDir()
	tables := `{"프로그래밍": {"id": "programming", "type": "regular"}}`
	if err := os.WriteFile(filepath.Join(boardsDir, "dcinside_galleries.json"), []byte(tables), 0o600); err != nil {
		t.Fatal(err)
	}
	resolver := boards.NewResolver(boardsDir)

	packager, err := media.NewPackager(config.MediaConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	controller := session.NewController(cfg, detect.NewDetector(nil), dispatch.NewDispatcher(cfg.Crawl), nil, packager, nil)
	handler := NewHandler(controller, resolver, packager)
	return NewRouter(cfg, handler, controller), packager
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding envelope: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := testRouter(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
			continue
		}
		resp := decodeEnvelope(t, rec)
		if resp.Status != "success" {
			t.Errorf("%s: envelope status %q", path, resp.Status)
		}
	}
}

func TestAutocomplete(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/autocomplete?site=dcinside&keyword=%ED%94%84%EB%A1%9C", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)

	payload, _ := resp.Data.(map[string]interface{})
	suggestions, _ := payload["suggestions"].([]interface{})
	if len(suggestions) != 1 || suggestions[0] != "프로그래밍" {
		t.Errorf("suggestions = %v", suggestions)
	}
}

func TestAutocompleteRequiresSite(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/autocomplete?keyword=go", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCancelCrawl(t *testing.T) {
	r, _ := testRouter(t)

	body := `{"crawl_id":"2f1f6f60-1111-4222-8333-444455556666","action":"cancel"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cancel-crawl", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.CancelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.CrawlID != "2f1f6f60-1111-4222-8333-444455556666" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCancelCrawlValidation(t *testing.T) {
	r, _ := testRouter(t)

	for _, body := range []string{
		`{"crawl_id":"not-a-uuid","action":"cancel"}`,
		`{"crawl_id":"2f1f6f60-1111-4222-8333-444455556666","action":"pause"}`,
		`not json`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cancel-crawl", strings.NewReader(body))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status %d", body, rec.Code)
		}
	}
}

func TestDownloadFile(t *testing.T) {
	r, packager := testRouter(t)

	archive := filepath.Join(packager.Dir(), "posts_media_1700000000.zip")
	if err := os.WriteFile(archive, []byte("PK fake zip"), 0o600); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download-file/posts_media_1700000000.zip", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/zip" {
		t.Errorf("content-type = %q", got)
	}

	// Traversal and unknown names 404.
	for _, name := range []string{"..%2F..%2Fetc%2Fpasswd", "posts_media_999.zip", "notes.txt"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download-file/"+name, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", name, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trawler_") {
		t.Error("metrics exposition missing trawler collectors")
	}
}
