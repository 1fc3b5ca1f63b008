// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package crawl implements the paginated fetch/filter/stop loop shared by
// every site adapter. Adapters supply a PageSource and per-site tuning;
// the engine owns pagination, predicate application, the early-stop
// heuristics, rank slicing and progress emission.
package crawl

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tomtom215/trawler/internal/filter"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/metrics"
	"github.com/tomtom215/trawler/internal/models"
)

// PageSource is one site's view of a paginated board. FetchPage returns
// the posts of a 1-based page; an empty slice past the end is normal.
// Implementations with token-based pagination (Reddit) declare
// Parallelism 1 in their tuning and keep cursor state internally.
type PageSource interface {
	FetchPage(ctx context.Context, page int) ([]models.Post, error)
	PageSize() int
}

// Tuning carries the per-site crawl constants.
type Tuning struct {
	// Parallelism is the max in-flight page fetches, 1-4.
	Parallelism int

	// ProgressFloor is where the collecting phase starts, 25-40. The
	// phase interpolates linearly from here to 75.
	ProgressFloor float64

	// EmptyPageLimit breaks the crawl after this many consecutive empty
	// pages. Zero means the shared default of 3.
	EmptyPageLimit int

	// MaxSeen optionally caps total posts examined (Reddit over-fetch
	// uses 3x the requested range capped at 2000). Zero means unlimited.
	MaxSeen int
}

// Shared loop constants.
const (
	maxPagesFiltered   = 200
	maxPagesUnfiltered = 20
	unfilteredSlack    = 3
	defaultEmptyLimit  = 3
	progressCeiling    = 75.0
)

// ProgressFunc receives one frame per processed page. May be nil.
type ProgressFunc func(models.ProgressFrame)

// Run executes the crawl loop and returns the posts of the requested rank
// range with ranks assigned from StartIndex. A nil return with nil error
// means no post survived the filters; callers map that to no_posts_found.
func Run(ctx context.Context, site, board string, src PageSource, opts models.CrawlOptions, tuning Tuning, progress ProgressFunc) ([]models.Post, error) {
	pred, err := filter.FromOptions(opts)
	if err != nil {
		return nil, err
	}

	if tuning.Parallelism < 1 {
		tuning.Parallelism = 1
	}
	if tuning.EmptyPageLimit < 1 {
		tuning.EmptyPageLimit = defaultEmptyLimit
	}
	if tuning.ProgressFloor <= 0 {
		tuning.ProgressFloor = 25
	}

	maxPages := pageBudget(opts, src.PageSize())
	target := opts.EndIndex

	var (
		matched          []models.Post
		seen             int
		fetchedPages     int
		errPages         int
		consecutiveFails int
		emptyPages       int
	)

	page := 1
	for page <= maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := min(tuning.Parallelism, maxPages-page+1)
		pages, pageErrs := fetchBatch(ctx, src, page, batch)

		stop := false
		for i := 0; i < batch; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if pageErrs[i] != nil {
				metrics.RecordPage(site, "error")
				logging.Warn().Err(pageErrs[i]).Str("site", site).Int("page", page+i).
					Msg("Page fetch failed")
				errPages++
				emptyPages++
				if emptyPages >= tuning.EmptyPageLimit {
					stop = true
					break
				}
				continue
			}

			posts := pages[i]
			if len(posts) == 0 {
				metrics.RecordPage(site, "empty")
				emptyPages++
				if emptyPages >= tuning.EmptyPageLimit {
					stop = true
					break
				}
				continue
			}
			metrics.RecordPage(site, "ok")
			fetchedPages++
			emptyPages = 0

			for j := range posts {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				seen++

				ok, reason := pred.Check(&posts[j])
				if ok {
					consecutiveFails = 0
					matched = append(matched, posts[j])
					if target > 0 && len(matched) >= target {
						stop = true
						break
					}
				} else {
					consecutiveFails++
					metrics.CrawlPostsRejected.WithLabelValues(site, string(reason)).Inc()
				}

				if tuning.MaxSeen > 0 && seen >= tuning.MaxSeen {
					stop = true
					break
				}
			}
			if stop {
				break
			}

			if filter.ShouldStop(consecutiveFails, pred.HasDateFilter()) {
				logging.Debug().Str("site", site).Int("consecutive_fails", consecutiveFails).
					Msg("Early stop: consecutive filter misses")
				stop = true
				break
			}

			if progress != nil {
				progress(models.ProgressFrame{
					Progress: collectingProgress(page+i, maxPages, tuning.ProgressFloor),
					Step:     models.StepCollecting,
					Site:     site,
					Board:    board,
					Details: map[string]interface{}{
						"matched_posts": len(matched),
						"current_page":  page + i,
						"max_pages":     maxPages,
					},
				})
			}
		}
		if stop {
			break
		}
		page += batch
	}

	if fetchedPages == 0 && errPages > 0 {
		// Every attempted page failed; surface the site as unreachable.
		return nil, &models.CrawlError{
			Code: models.ErrCodeConnectionFailed, Site: site,
			Detail: "no pages could be fetched",
		}
	}

	return slice(matched, opts), nil
}

// fetchBatch fetches n consecutive pages concurrently and returns them
// re-ordered by page number, so appends to the seen list stay
// deterministic regardless of completion order.
func fetchBatch(ctx context.Context, src PageSource, first, n int) ([][]models.Post, []error) {
	pages := make([][]models.Post, n)
	errs := make([]error, n)

	if n == 1 {
		pages[0], errs[0] = src.FetchPage(ctx, first)
		return pages, errs
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages[i], errs[i] = src.FetchPage(ctx, first+i)
		}(i)
	}
	wg.Wait()
	return pages, errs
}

// pageBudget computes the page cap: generous when filters force deep
// walking, tight when the request is a plain rank range.
func pageBudget(opts models.CrawlOptions, pageSize int) int {
	if opts.HasFilters() {
		return maxPagesFiltered
	}
	if pageSize < 1 {
		pageSize = 1
	}
	need := int(math.Ceil(float64(opts.EndIndex)/float64(pageSize))) + unfilteredSlack
	if need < 1 {
		need = 1
	}
	if need > maxPagesUnfiltered {
		return maxPagesUnfiltered
	}
	return need
}

// collectingProgress interpolates the collecting phase between the
// per-site floor and 75, clamped to [0,100].
func collectingProgress(page, maxPages int, floor float64) float64 {
	if maxPages < 1 {
		maxPages = 1
	}
	frac := float64(page) / float64(maxPages)
	p := floor + frac*(progressCeiling-floor)
	return clamp(p)
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// slice cuts the matched posts down to the requested rank range and
// assigns ranks from StartIndex.
func slice(matched []models.Post, opts models.CrawlOptions) []models.Post {
	start := opts.StartIndex
	if start < 1 {
		start = 1
	}
	if start > len(matched) {
		return nil
	}

	end := opts.EndIndex
	if end < 1 || end > len(matched) {
		end = len(matched)
	}

	out := make([]models.Post, end-start+1)
	copy(out, matched[start-1:end])
	for i := range out {
		out[i].Rank = start + i
		out[i].NormalizeThumbnail()
	}
	return out
}

// SortByCreated orders posts newest first using their normalized times.
// Posts without a parsed time keep their relative source order at the end.
func SortByCreated(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].CreatedTime, posts[j].CreatedTime
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
}
