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

// BBC scrapes section pages (news, sport, ...). An empty board is valid
// and crawls the front page. Engagement metrics do not exist on BBC, so
// posts carry zeros and metric filters reject everything.
type BBC struct {
	client  *fetch.Client
	baseURL string
}

// NewBBC builds the adapter.
func NewBBC(client *fetch.Client) *BBC {
	return &BBC{client: client, baseURL: "https://www.bbc.com"}
}

// Site implements Adapter.
func (b *BBC) Site() string { return models.SiteBBC }

// SectionName returns the display name for a section path, backing the
// detector's URL display helper.
func SectionName(section string) string {
	if section == "" {
		return "BBC"
	}
	return "BBC " + strings.ToUpper(section[:1]) + section[1:]
}

// Fetch implements Adapter.
func (b *BBC) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	src := &bbcSource{adapter: b, section: strings.Trim(opts.Board, "/")}
	tuning := crawl.Tuning{Parallelism: 1, ProgressFloor: 35, EmptyPageLimit: 1}
	return crawl.Run(ctx, models.SiteBBC, src.section, src, opts, tuning, progress)
}

// bbcSource is a single-page source; section pages are not paginated.
type bbcSource struct {
	adapter *BBC
	section string
}

func (s *bbcSource) PageSize() int { return 100 }

func (s *bbcSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	if page > 1 {
		return nil, nil
	}

	u := s.adapter.baseURL
	if s.section != "" {
		u += "/" + s.section
	}

	doc, err := s.adapter.client.GetDocument(ctx, models.SiteBBC, u)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var posts []models.Post

	doc.Find(`a[data-testid="internal-link"], h3 a, h2 a, a.gs-c-promo-heading`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Find("h2, h3, .gs-c-promo-heading__title").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" || len([]rune(title)) < 5 || href == "" {
			return
		}

		abs := absoluteURL(s.adapter.baseURL, href)
		if seen[abs] || !strings.Contains(abs, "bbc.") {
			return
		}
		seen[abs] = true

		post := models.Post{
			TitleOriginal: title,
			Link:          abs,
			Board:         s.section,
			Site:          models.SiteBBC,
		}
		if img, ok := link.Find("img").Attr("src"); ok {
			post.ThumbnailURL = absoluteURL(s.adapter.baseURL, img)
		}
		posts = append(posts, post)
	})

	return posts, nil
}
