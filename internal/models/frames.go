// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package models

// Pipeline step identifiers carried in progress frames.
const (
	StepInitializing  = "initializing"
	StepDetectingSite = "detecting_site"
	StepConnecting    = "connecting"
	StepCollecting    = "collecting"
	StepFiltering     = "filtering"
	StepProcessing    = "processing"
	StepTranslating   = "translating"
	StepPackaging     = "packaging"
	StepFinalizing    = "finalizing"
	StepComplete      = "complete"
)

// ProgressFrame is a server-to-client progress update. Progress is always
// within [0, 100] and monotonically non-decreasing within a session.
type ProgressFrame struct {
	Progress float64                `json:"progress"`
	Step     string                 `json:"step"`
	Site     string                 `json:"site,omitempty"`
	Board    string                 `json:"board,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// CancelFrame is the terminal frame for a cancelled session.
type CancelFrame struct {
	Cancelled bool `json:"cancelled"`
}

// ErrorFrame is the terminal frame for a failed crawl or session.
type ErrorFrame struct {
	ErrorCode   string `json:"error_code"`
	ErrorDetail string `json:"error_detail"`
	Site        string `json:"site,omitempty"`
}

// DoneFrame is the terminal frame of a successful session.
type DoneFrame struct {
	Done         bool         `json:"done"`
	Data         []Post       `json:"data"`
	DetectedSite string       `json:"detected_site"`
	Summary      CrawlSummary `json:"summary"`
}

// CrawlSummary describes the completed crawl for display and logging.
type CrawlSummary struct {
	TotalPosts   int    `json:"total_posts"`
	Site         string `json:"site"`
	Board        string `json:"board"`
	Translated   bool   `json:"translated,omitempty"`
	MediaArchive string `json:"media_archive,omitempty"`
	MediaFiles   int    `json:"media_files,omitempty"`
	ElapsedMS    int64  `json:"elapsed_ms"`
}

// CancelRequest is the out-of-band cancellation request body.
type CancelRequest struct {
	CrawlID string `json:"crawl_id" validate:"required,uuid4"`
	Action  string `json:"action" validate:"required,oneof=cancel"`
}

// CancelResponse acknowledges a cancellation request. Success is true
// whether or not a matching session was still alive.
type CancelResponse struct {
	Success   bool   `json:"success"`
	CrawlID   string `json:"crawl_id"`
	Timestamp string `json:"timestamp"`
}
