// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package translate is the client for the external key-authenticated
// translation service. Translation failures are non-fatal by contract: the
// session keeps the original title and moves on, so every error path here
// returns an error and never panics or retries.
package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/metrics"
	"github.com/tomtom215/trawler/internal/models"
)

const (
	defaultTimeout = 10 * time.Second
	maxReplyBytes  = 1 << 20
)

// Client calls the translation service. A client with an empty API key is
// valid and reports itself disabled; callers skip translation entirely.
type Client struct {
	cfg config.TranslateConfig
	hc  *http.Client
}

// NewClient builds the client from config.
func NewClient(cfg config.TranslateConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether translation calls can be made.
func (c *Client) Enabled() bool { return c.cfg.Enabled() }

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate returns text rendered in the target language. The caller keeps
// the original on any error.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if !c.Enabled() {
		return "", &models.CrawlError{Code: models.ErrCodeTranslationFailed, Detail: "translation service not configured"}
	}

	body, err := json.Marshal(translateRequest{Text: text, TargetLanguage: targetLang})
	if err != nil {
		return "", fmt.Errorf("encoding translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.TranslationRequests.WithLabelValues(targetLang, "error").Inc()
		return "", &models.CrawlError{Code: models.ErrCodeTranslationFailed, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TranslationRequests.WithLabelValues(targetLang, "error").Inc()
		return "", &models.CrawlError{
			Code:   models.ErrCodeTranslationFailed,
			Detail: fmt.Sprintf("translation service returned %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		metrics.TranslationRequests.WithLabelValues(targetLang, "error").Inc()
		return "", &models.CrawlError{Code: models.ErrCodeTranslationFailed, Detail: err.Error(), Err: err}
	}

	var out translateResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.TranslatedText == "" {
		metrics.TranslationRequests.WithLabelValues(targetLang, "error").Inc()
		return "", &models.CrawlError{Code: models.ErrCodeTranslationFailed, Detail: "malformed translation response"}
	}

	metrics.TranslationRequests.WithLabelValues(targetLang, "ok").Inc()
	return out.TranslatedText, nil
}

// NeedsTranslation reports whether a title is worth sending to the service
// for a given target language. The heuristic matches how the sources skew:
// an all-ASCII title is treated as already English, a title with any
// non-ASCII rune as already Korean.
func NeedsTranslation(title, targetLang string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}

	ascii := true
	for _, r := range title {
		if r > 127 {
			ascii = false
			break
		}
	}

	switch targetLang {
	case "en":
		return !ascii
	case "ko":
		return ascii
	default:
		return true
	}
}
