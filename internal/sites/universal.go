// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package sites

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// universalSelectors is the prioritized anchor extraction chain: obvious
// headline anchors first, title-ish class names second, loose post-like
// containers last. The first tier that yields anything wins.
var universalSelectors = [][]string{
	{"h1 a", "h2 a", "h3 a", "h4 a"},
	{".title a", ".headline a", ".subject a"},
	{"[class*=title] a", "[class*=post] a", "article a"},
}

// boilerplateTitles are link texts that are navigation, not posts.
var boilerplateTitles = map[string]bool{
	"more":      true,
	"read more": true,
	"click here": true,
	"더보기":       true,
	"더 보기":      true,
	"전체보기":      true,
	"다음":        true,
	"이전":        true,
	"next":      true,
	"prev":      true,
	"previous":  true,
}

const universalMinTitleLen = 5

// Universal is the fallback adapter: generic anchor extraction from any
// page. Metrics are always zero; metric filters reject everything.
type Universal struct {
	client *fetch.Client
}

// NewUniversal builds the adapter.
func NewUniversal(client *fetch.Client) *Universal {
	return &Universal{client: client}
}

// Site implements Adapter.
func (u *Universal) Site() string { return models.SiteUniversal }

// Fetch implements Adapter. The board identifier is the page URL itself;
// non-URL input is not crawlable.
func (u *Universal) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	target := strings.TrimSpace(opts.Board)
	if target == "" {
		return nil, &models.CrawlError{
			Code: models.ErrCodeInvalidURL, Detail: "a page URL is required",
			Site: models.SiteUniversal,
		}
	}
	if !strings.Contains(target, "://") {
		if !strings.Contains(target, ".") {
			return nil, &models.CrawlError{
				Code: models.ErrCodeInvalidURL, Detail: "input is not a crawlable URL",
				Site: models.SiteUniversal,
			}
		}
		target = "https://" + target
	}

	src := &universalSource{adapter: u, target: target}
	tuning := crawl.Tuning{Parallelism: 1, ProgressFloor: 40, EmptyPageLimit: 1}
	return crawl.Run(ctx, models.SiteUniversal, target, src, opts, tuning, progress)
}

type universalSource struct {
	adapter *Universal
	target  string
}

func (s *universalSource) PageSize() int { return 100 }

func (s *universalSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	if page > 1 {
		return nil, nil
	}

	doc, err := s.adapter.client.GetDocument(ctx, models.SiteUniversal, s.target)
	if err != nil {
		return nil, err
	}

	return ExtractAnchors(doc, s.target), nil
}

// ExtractAnchors runs the prioritized selector chain over a parsed page
// and returns generic posts, deduplicated by href.
func ExtractAnchors(doc *goquery.Document, base string) []models.Post {
	seen := make(map[string]bool)
	var posts []models.Post

	for _, tier := range universalSelectors {
		for _, selector := range tier {
			doc.Find(selector).Each(func(_ int, link *goquery.Selection) {
				title := strings.Join(strings.Fields(link.Text()), " ")
				if len([]rune(title)) < universalMinTitleLen {
					return
				}
				if boilerplateTitles[strings.ToLower(title)] {
					return
				}

				href, _ := link.Attr("href")
				if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
					return
				}

				abs := absoluteURL(base, href)
				if seen[abs] {
					return
				}
				seen[abs] = true

				posts = append(posts, models.Post{
					TitleOriginal: title,
					Link:          abs,
					Board:         base,
					Site:          models.SiteUniversal,
				})
			})
		}
		if len(posts) > 0 {
			break
		}
	}
	return posts
}
