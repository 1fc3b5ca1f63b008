// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Machine error codes carried on the wire. These are language-independent;
// the session controller renders localized detail text separately.
const (
	ErrCodeInvalidURL        = "invalid_url"
	ErrCodeSiteNotFound      = "site_not_found"
	ErrCodeNoPostsFound      = "no_posts_found"
	ErrCodeConnectionFailed  = "connection_failed"
	ErrCodeTimeout           = "timeout"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeCrawlingError     = "crawling_error"
	ErrCodeTranslationFailed = "translation_failed"
	ErrCodeInvalidParameters = "invalid_parameters"
)

// CrawlError is the domain error type that crosses the session boundary.
// It pairs a machine code from the taxonomy above with free-text detail
// and, when known, the site the failure occurred on.
type CrawlError struct {
	Code   string
	Detail string
	Site   string
	Err    error
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return e.Code
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError builds a CrawlError with the given code and detail.
func NewCrawlError(code, detail string) *CrawlError {
	return &CrawlError{Code: code, Detail: detail}
}

// WrapCrawlError builds a CrawlError wrapping a cause.
func WrapCrawlError(code, site string, err error) *CrawlError {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &CrawlError{Code: code, Detail: detail, Site: site, Err: err}
}

// AsCrawlError extracts a *CrawlError from an error chain, or classifies
// the error into the taxonomy when none is present. context.Canceled is
// never classified here; cancellation is a distinct terminal frame, not an
// error code.
func AsCrawlError(err error, site string) *CrawlError {
	var ce *CrawlError
	if errors.As(err, &ce) {
		if ce.Site == "" {
			ce.Site = site
		}
		return ce
	}
	return &CrawlError{Code: ClassifyError(err), Detail: err.Error(), Site: site, Err: err}
}

// ClassifyError maps a transport-level error onto a machine code.
// Unrecognized errors land on crawling_error.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrCodeTimeout
		}
		return ErrCodeConnectionFailed
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrCodeConnectionFailed
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrCodeConnectionFailed
	}

	return ErrCodeCrawlingError
}
