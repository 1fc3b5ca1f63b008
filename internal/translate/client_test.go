// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/models"
)

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"text":"좋은 글","target_language":"en"}` {
			t.Errorf("request body = %s", body)
		}
		_, _ = w.Write([]byte(`{"translated_text":"A good post"}`))
	}))
	defer srv.Close()

	c := NewClient(config.TranslateConfig{APIKey: "test-key", BaseURL: srv.URL})

	got, err := c.Translate(context.Background(), "좋은 글", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "A good post" {
		t.Errorf("translated = %q", got)
	}
}

func TestTranslateFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
		{"empty translation", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"translated_text":""}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(config.TranslateConfig{APIKey: "k", BaseURL: srv.URL})
			_, err := c.Translate(context.Background(), "title", "ko")

			var ce *models.CrawlError
			if !errors.As(err, &ce) || ce.Code != models.ErrCodeTranslationFailed {
				t.Fatalf("err = %v, want translation_failed", err)
			}
		})
	}
}

func TestTranslateDisabled(t *testing.T) {
	c := NewClient(config.TranslateConfig{})
	if c.Enabled() {
		t.Fatal("client without API key must report disabled")
	}
	if _, err := c.Translate(context.Background(), "title", "en"); err == nil {
		t.Fatal("expected error from disabled client")
	}
}

func TestNeedsTranslation(t *testing.T) {
	tests := []struct {
		title  string
		target string
		want   bool
	}{
		{"plain english title", "en", false},
		{"plain english title", "ko", true},
		{"한국어 제목", "en", true},
		{"한국어 제목", "ko", false},
		{"mixed 제목 title", "en", true},
		{"   ", "en", false},
		{"anything", "ja", true},
	}

	for _, tt := range tests {
		if got := NeedsTranslation(tt.title, tt.target); got != tt.want {
			t.Errorf("NeedsTranslation(%q, %s) = %v, want %v", tt.title, tt.target, got, tt.want)
		}
	}
}
