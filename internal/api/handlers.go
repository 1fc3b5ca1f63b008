// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/trawler/internal/boards"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/media"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/session"
	"github.com/tomtom215/trawler/internal/validation"
)

// Handler carries the REST endpoint dependencies.
type Handler struct {
	controller *session.Controller
	resolver   *boards.Resolver
	packager   *media.Packager
	startTime  time.Time
}

// NewHandler builds the REST handlers. The packager may be nil when media
// packaging is disabled; the download endpoint then 404s.
func NewHandler(controller *session.Controller, resolver *boards.Resolver, packager *media.Packager) *Handler {
	return &Handler{
		controller: controller,
		resolver:   resolver,
		packager:   packager,
		startTime:  time.Now(),
	}
}

// Health is GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{
		"status":          "healthy",
		"uptime_seconds":  int64(time.Since(h.startTime).Seconds()),
		"active_sessions": h.controller.ActiveCount(),
	})
}

// HealthLive is GET /api/v1/health/live: process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{"status": "alive"})
}

// HealthReady is GET /api/v1/health/ready: ready to take sessions. There is
// no external storage, so readiness equals liveness.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{"status": "ready"})
}

// Autocomplete is GET /api/autocomplete?site=&keyword=.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	site := r.URL.Query().Get("site")
	keyword := r.URL.Query().Get("keyword")

	if site == "" {
		writeError(w, http.StatusBadRequest, models.ErrCodeInvalidParameters, "site parameter required")
		return
	}

	suggestions := h.resolver.Suggest(site, keyword, boards.MaxSuggestions)
	if suggestions == nil {
		suggestions = []string{}
	}

	writeSuccess(w, models.AutocompleteResult{
		Site:        site,
		Keyword:     keyword,
		Suggestions: suggestions,
	})
}

// CancelCrawl is POST /api/cancel-crawl. The response shape is pinned by the
// wire contract and bypasses the standard envelope.
func (h *Handler) CancelCrawl(w http.ResponseWriter, r *http.Request) {
	var req models.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.ErrCodeInvalidParameters, "malformed request body")
		return
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		writeError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return
	}

	resp := h.controller.Cancel(req.CrawlID)
	writeJSON(w, http.StatusOK, resp)
}

// DownloadFile is GET /api/download-file/{name}: serves a packaged media
// archive. Invalid names (traversal attempts included) and expired archives
// both 404.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if h.packager == nil {
		http.NotFound(w, r)
		return
	}

	name := chi.URLParam(r, "name")
	full, err := h.packager.ArchivePath(name)
	if err != nil {
		logging.Debug().Str("name", name).Err(err).Msg("archive request rejected")
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, full)
}
