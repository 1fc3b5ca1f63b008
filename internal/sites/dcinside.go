// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/trawler/internal/boards"
	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/dateparse"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// DCInside scrapes gallery list pages. Regular and minor galleries live
// under different URL schemes; the board resolver decides which.
type DCInside struct {
	client   *fetch.Client
	resolver *boards.Resolver
	baseURL  string
}

// NewDCInside builds the adapter.
func NewDCInside(client *fetch.Client, resolver *boards.Resolver) *DCInside {
	return &DCInside{
		client:   client,
		resolver: resolver,
		baseURL:  "https://gall.dcinside.com",
	}
}

// Site implements Adapter.
func (d *DCInside) Site() string { return models.SiteDCInside }

// Fetch implements Adapter.
func (d *DCInside) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	gallery, err := d.resolver.ResolveGallery(opts.Board)
	if err != nil {
		return nil, err
	}

	src := &dcinsideSource{adapter: d, gallery: gallery}
	tuning := crawl.Tuning{Parallelism: 2, ProgressFloor: 25}
	return crawl.Run(ctx, models.SiteDCInside, gallery.ID, src, opts, tuning, progress)
}

type dcinsideSource struct {
	adapter *DCInside
	gallery boards.Gallery
}

func (s *dcinsideSource) PageSize() int { return 50 }

// listURL picks the URL scheme by gallery kind.
func (s *dcinsideSource) listURL(page int) string {
	prefix := "/board/lists/"
	if s.gallery.Minor() {
		prefix = "/mgallery/board/lists/"
	}
	return fmt.Sprintf("%s%s?id=%s&page=%d", s.adapter.baseURL, prefix, s.gallery.ID, page)
}

func (s *dcinsideSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	doc, err := s.adapter.client.GetDocument(ctx, models.SiteDCInside, s.listURL(page))
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	doc.Find("tr.ub-content, tr.us-post").Each(func(_ int, row *goquery.Selection) {
		// Notices and ads carry a non-numeric number cell.
		num := strings.TrimSpace(row.Find("td.gall_num").First().Text())
		if num == "" || !digitsPattern.MatchString(num) {
			return
		}

		titleLink := row.Find("td.gall_tit a").First()
		title := strings.TrimSpace(titleLink.Text())
		href, _ := titleLink.Attr("href")
		if title == "" || href == "" {
			return
		}

		createdAt := firstText(row, "td.gall_date")
		if createdAt == "" {
			if attr, ok := row.Find("td.gall_date").Attr("title"); ok {
				createdAt = attr
			}
		}

		post := models.Post{
			TitleOriginal: title,
			Link:          absoluteURL(s.adapter.baseURL, href),
			Views:         firstCount(row, "td.gall_count", ".gall_count", "td.view"),
			Score:         firstCount(row, "td.gall_recommend", ".gall_recommend", "td.recommend"),
			Comments:      replyCount(row),
			CreatedAt:     createdAt,
			Author:        firstText(row, "td.gall_writer .nickname", "td.gall_writer", ".ub-writer"),
			Board:         s.gallery.ID,
			Site:          models.SiteDCInside,
		}
		if t, ok := dateparse.Parse(createdAt); ok {
			post.CreatedTime = &t
		}
		if thumb, ok := row.Find("td.gall_tit img").Attr("src"); ok {
			post.ThumbnailURL = absoluteURL(s.adapter.baseURL, thumb)
		}
		posts = append(posts, post)
	})

	return posts, nil
}

// replyCount reads the bracketed reply counter appended to the title cell
// ("[12]"), falling back to a dedicated cell on older layouts.
func replyCount(row *goquery.Selection) int {
	if text := strings.TrimSpace(row.Find("td.gall_tit .reply_num, .reply_numbox").First().Text()); text != "" {
		return parseCount(text)
	}
	return firstCount(row, "td.gall_reply", ".gall_reply")
}
