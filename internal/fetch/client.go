// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package fetch is the shared outbound HTTP client used by every site
// adapter and the detector probe. It applies a consistent User-Agent,
// a per-request timeout, a per-site token-bucket rate limit, and a
// per-site circuit breaker, and maps transport failures onto the wire
// error taxonomy (429 -> rate_limited, dial/DNS -> connection_failed,
// deadline -> timeout).
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/metrics"
	"github.com/tomtom215/trawler/internal/models"
)

// maxBodyBytes caps page and API response reads. Community pages and
// catalog JSON are well under this; anything larger is not a post list.
const maxBodyBytes = 20 << 20

// Client is the polite HTTP client shared by all adapters. Safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	perSite    rate.Limit
	burst      int

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
	limiters map[string]*rate.Limiter
}

// NewClient builds a client from the crawl configuration.
func NewClient(cfg config.CrawlConfig) *Client {
	perSite := rate.Limit(cfg.RatePerSite)
	if perSite <= 0 {
		perSite = rate.Inf
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		userAgent: cfg.UserAgent,
		timeout:   cfg.RequestTimeout,
		perSite:   perSite,
		burst:     2,
		breakers:  make(map[string]*gobreaker.CircuitBreaker[[]byte]),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// breaker returns the per-site circuit breaker, creating it on first use.
// Opens after a 60% failure rate over at least 10 requests.
func (c *Client) breaker(site string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[site]; ok {
		return cb
	}

	name := "fetch-" + site
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	c.breakers[site] = cb
	return cb
}

func (c *Client) limiter(site string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[site]; ok {
		return l
	}
	l := rate.NewLimiter(c.perSite, c.burst)
	c.limiters[site] = l
	return l
}

// Get fetches a URL and returns the response body.
func (c *Client) Get(ctx context.Context, site, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, models.WrapCrawlError(models.ErrCodeInvalidURL, site, err)
	}
	return c.Do(ctx, site, req)
}

// Do executes a request through the per-site rate limiter and circuit
// breaker using the shared HTTP client.
func (c *Client) Do(ctx context.Context, site string, req *http.Request) ([]byte, error) {
	return c.DoWith(ctx, site, c.httpClient, req)
}

// DoWith executes a request using a caller-supplied HTTP client, still
// under this client's limiter and breaker. The Reddit adapter uses this
// to route its OAuth2-authenticated client through shared politeness.
func (c *Client) DoWith(ctx context.Context, site string, hc *http.Client, req *http.Request) ([]byte, error) {
	if err := c.limiter(site).Wait(ctx); err != nil {
		return nil, err
	}

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(ctx)

	start := time.Now()
	body, err := c.breaker(site).Execute(func() ([]byte, error) {
		return c.roundTrip(site, hc, req, start)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Str("site", site).Msg("Circuit breaker rejected request")
			return nil, models.WrapCrawlError(models.ErrCodeConnectionFailed, site, err)
		}
		return nil, err
	}
	return body, nil
}

// roundTrip performs the request and maps the status code. It runs
// inside the circuit breaker so HTTP-level failures count against it.
func (c *Client) roundTrip(site string, hc *http.Client, req *http.Request, start time.Time) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		metrics.RecordFetch(site, 0, time.Since(start))
		return nil, models.AsCrawlError(err, site)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordFetch(site, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &models.CrawlError{
			Code:   models.ErrCodeRateLimited,
			Detail: fmt.Sprintf("%s returned 429", req.URL.Host),
			Site:   site,
		}
	case resp.StatusCode >= 400:
		return nil, &models.CrawlError{
			Code:   models.ErrCodeCrawlingError,
			Detail: fmt.Sprintf("%s returned status %d", req.URL.Host, resp.StatusCode),
			Site:   site,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, models.AsCrawlError(err, site)
	}
	return body, nil
}

// GetJSON fetches a URL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, site, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.WrapCrawlError(models.ErrCodeInvalidURL, site, err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.Do(ctx, site, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return models.WrapCrawlError(models.ErrCodeCrawlingError, site,
			fmt.Errorf("decode %s: %w", rawURL, err))
	}
	return nil
}

// GetDocument fetches a URL and parses the body as HTML.
func (c *Client) GetDocument(ctx context.Context, site, rawURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, site, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.WrapCrawlError(models.ErrCodeCrawlingError, site,
			fmt.Errorf("parse %s: %w", rawURL, err))
	}
	return doc, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
