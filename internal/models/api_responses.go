// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package models

import (
	"time"
)

// APIResponse is the standardized wrapper for the REST endpoints (health,
// autocomplete). Endpoints whose shapes the wire contract pins literally
// (cancel-crawl, download-file, WebSocket frames) use those shapes instead.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a structured REST error with a machine-readable code.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AutocompleteResult is the payload of the autocomplete endpoint.
type AutocompleteResult struct {
	Site        string   `json:"site"`
	Keyword     string   `json:"keyword"`
	Suggestions []string `json:"suggestions"`
}
