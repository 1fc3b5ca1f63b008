// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package dispatch routes a validated crawl request to the adapter registered
// for a site type. Each registry entry carries the adapter, the name of the
// parameter holding the board identifier, a whitelist of the options the
// adapter consumes, and an optional per-site transform. Options outside the
// whitelist are dropped with a warning so an adapter never sees a parameter
// it does not support.
package dispatch

import (
	"context"
	"strings"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/sites"
)

// Parameter names shared by the whitelist, the alias table, and the options
// materializer.
const (
	paramSort         = "sort"
	paramTimeFilter   = "time_filter"
	paramStartDate    = "start_date"
	paramEndDate      = "end_date"
	paramMinViews     = "min_views"
	paramMinLikes     = "min_likes"
	paramMinComments  = "min_comments"
	paramStartIndex   = "start_index"
	paramEndIndex     = "end_index"
	paramLimit        = "limit"
	paramEnforceDate  = "enforce_date_limit"
	paramIncludeMedia = "include_media"
	paramIncludeNSFW  = "include_nsfw"
)

// aliases maps caller-side names onto canonical parameter names. The special
// value "target" resolves to the entry's TargetParam.
var aliases = map[string]string{
	"start":            paramStartIndex,
	"end":              paramEndIndex,
	"board":            "target",
	"input":            "target",
	"board_identifier": "target",
}

// Transform mutates the parameter map before whitelist filtering. The target
// identifier lives under the entry's TargetParam key.
type Transform func(params map[string]any, targetParam string)

// Entry is one registered adapter.
type Entry struct {
	Adapter sites.Adapter

	// TargetParam names the parameter carrying the board identifier
	// ("subreddit", "gallery", ...).
	TargetParam string

	// Whitelist enumerates the option names forwarded to the adapter. The
	// target parameter is always forwarded.
	Whitelist []string

	// AllowEmptyTarget marks adapters that accept an empty board identifier
	// (BBC front page, universal keyword search happens upstream).
	AllowEmptyTarget bool

	Transform Transform
}

// filterParams are the predicate options every engine-driven adapter
// supports.
var filterParams = []string{
	paramTimeFilter, paramStartDate, paramEndDate,
	paramMinViews, paramMinLikes, paramMinComments,
	paramStartIndex, paramEndIndex,
	paramEnforceDate, paramIncludeMedia,
}

// profiles carries the per-site registry shape, keyed by site type. The
// adapter reference is attached at registration time.
var profiles = map[string]Entry{
	models.SiteReddit: {
		TargetParam: "subreddit",
		Whitelist:   append([]string{paramSort, paramLimit, paramIncludeNSFW}, filterParams...),
		Transform:   redditTransform,
	},
	models.SiteDCInside: {
		TargetParam: "gallery",
		Whitelist:   filterParams,
	},
	models.SiteBlind: {
		TargetParam: "topic",
		Whitelist:   append([]string{paramSort}, filterParams...),
	},
	models.SiteBBC: {
		TargetParam:      "section",
		Whitelist:        filterParams,
		AllowEmptyTarget: true,
	},
	models.SiteLemmy: {
		TargetParam: "community",
		Whitelist:   append([]string{paramSort, paramLimit}, filterParams...),
		Transform:   lemmyTransform,
	},
	models.SiteFourChan: {
		TargetParam: "board_code",
		Whitelist:   filterParams,
	},
	models.SiteX: {
		TargetParam: "query",
		Whitelist:   filterParams,
	},
	models.SiteUniversal: {
		TargetParam:      "url",
		Whitelist:        filterParams,
		AllowEmptyTarget: true,
	},
}

// redditSortAliases normalizes the vocabulary some frontends send.
var redditSortAliases = map[string]string{
	"popular":   models.SortHot,
	"recommend": models.SortTop,
	"recent":    models.SortNew,
	"comments":  models.SortTop,
}

func redditTransform(params map[string]any, targetParam string) {
	if s, ok := params[paramSort].(string); ok {
		if mapped, ok := redditSortAliases[strings.ToLower(s)]; ok {
			params[paramSort] = mapped
		}
	}
	if board, ok := params[targetParam].(string); ok {
		board = strings.TrimPrefix(strings.TrimPrefix(board, "/"), "r/")
		params[targetParam] = board
	}
}

func lemmyTransform(params map[string]any, targetParam string) {
	board, ok := params[targetParam].(string)
	if !ok || board == "" {
		return
	}
	if !strings.Contains(board, "@") && !strings.Contains(board, "://") {
		params[targetParam] = board + "@" + sites.DefaultLemmyInstance
	}
}

// Dispatcher holds the adapter registry. The registry is populated once at
// startup and immutable afterwards.
type Dispatcher struct {
	cfg      config.CrawlConfig
	registry map[string]Entry
}

// NewDispatcher builds an empty dispatcher. Adapters are attached with
// Register.
func NewDispatcher(cfg config.CrawlConfig) *Dispatcher {
	return &Dispatcher{cfg: cfg, registry: make(map[string]Entry)}
}

// Register attaches an adapter under its site's profile. Unknown site types
// get a universal-shaped profile so experimental adapters still dispatch.
func (d *Dispatcher) Register(a sites.Adapter) {
	entry, ok := profiles[a.Site()]
	if !ok {
		entry = Entry{TargetParam: "url", Whitelist: filterParams, AllowEmptyTarget: true}
	}
	entry.Adapter = a
	d.registry[a.Site()] = entry
}

// Registered reports whether a site type has an adapter.
func (d *Dispatcher) Registered(site string) bool {
	_, ok := d.registry[site]
	return ok
}

// Dispatch validates the request, marshals it into the adapter's parameter
// shape and invokes the adapter. The board identifier comes from the
// detector, not from the request body.
func (d *Dispatcher) Dispatch(ctx context.Context, site, board string, req models.CrawlRequest, progress crawl.ProgressFunc) ([]models.Post, error) {
	entry, ok := d.registry[site]
	if !ok {
		return nil, &models.CrawlError{
			Code:   models.ErrCodeSiteNotFound,
			Detail: "no adapter registered for site",
			Site:   site,
		}
	}

	normalized, err := d.ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	params := requestParams(normalized)
	params[entry.TargetParam] = board
	applyAliases(params, entry.TargetParam)

	if entry.Transform != nil {
		entry.Transform(params, entry.TargetParam)
	}

	dropUnlisted(params, entry, site)

	target, _ := params[entry.TargetParam].(string)
	if target == "" && !entry.AllowEmptyTarget {
		return nil, &models.CrawlError{
			Code:   models.ErrCodeInvalidParameters,
			Detail: "board identifier required",
			Site:   site,
		}
	}

	opts := optionsFromParams(params, entry.TargetParam)
	return entry.Adapter.Fetch(ctx, opts, progress)
}

// requestParams flattens the set fields of a request into the canonical
// parameter map.
func requestParams(req models.CrawlRequest) map[string]any {
	params := make(map[string]any)

	if req.Sort != "" {
		params[paramSort] = req.Sort
	}
	if req.TimeFilter != "" {
		params[paramTimeFilter] = req.TimeFilter
	}
	if req.StartDate != "" {
		params[paramStartDate] = req.StartDate
	}
	if req.EndDate != "" {
		params[paramEndDate] = req.EndDate
	}
	if req.MinViews > 0 {
		params[paramMinViews] = req.MinViews
	}
	if req.MinLikes > 0 {
		params[paramMinLikes] = req.MinLikes
	}
	if req.MinComment > 0 {
		params[paramMinComments] = req.MinComment
	}
	params[paramStartIndex] = req.Start
	params[paramEndIndex] = req.End
	if req.IncludeMedia {
		params[paramIncludeMedia] = true
	}
	if req.IncludeNSFW {
		params[paramIncludeNSFW] = true
	}
	if req.StartDate != "" || req.EndDate != "" || (req.TimeFilter != "" && req.TimeFilter != models.TimeFilterAll) {
		params[paramEnforceDate] = true
	}

	return params
}

// applyAliases rewrites caller-side names to canonical ones. A value under
// an alias only fills a hole; canonical keys win on conflict.
func applyAliases(params map[string]any, targetParam string) {
	for from, to := range aliases {
		v, ok := params[from]
		if !ok {
			continue
		}
		delete(params, from)

		if to == "target" {
			to = targetParam
		}
		if _, exists := params[to]; !exists {
			params[to] = v
		}
	}
}

// dropUnlisted removes every parameter outside the entry's whitelist, logging
// each dropped key.
func dropUnlisted(params map[string]any, entry Entry, site string) {
	allowed := make(map[string]bool, len(entry.Whitelist)+1)
	allowed[entry.TargetParam] = true
	for _, name := range entry.Whitelist {
		allowed[name] = true
	}

	for key := range params {
		if allowed[key] {
			continue
		}
		logging.Warn().
			Str("site", site).
			Str("param", key).
			Msg("dropping parameter not supported by adapter")
		delete(params, key)
	}
}

// optionsFromParams materializes the adapter-facing options struct.
func optionsFromParams(params map[string]any, targetParam string) models.CrawlOptions {
	opts := models.CrawlOptions{}
	opts.Board, _ = params[targetParam].(string)
	opts.Sort, _ = params[paramSort].(string)
	opts.TimeFilter, _ = params[paramTimeFilter].(string)
	opts.StartDate, _ = params[paramStartDate].(string)
	opts.EndDate, _ = params[paramEndDate].(string)
	opts.MinViews, _ = params[paramMinViews].(int)
	opts.MinLikes, _ = params[paramMinLikes].(int)
	opts.MinComments, _ = params[paramMinComments].(int)
	opts.StartIndex, _ = params[paramStartIndex].(int)
	opts.EndIndex, _ = params[paramEndIndex].(int)
	opts.Limit, _ = params[paramLimit].(int)
	opts.EnforceDateLimit, _ = params[paramEnforceDate].(bool)
	opts.IncludeMedia, _ = params[paramIncludeMedia].(bool)
	opts.IncludeNSFW, _ = params[paramIncludeNSFW].(bool)
	return opts
}
