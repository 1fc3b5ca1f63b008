// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package sites

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/dateparse"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// X fetches public timelines and hashtag searches through a Nitter-style
// mirror frontend, since the first-party site requires authentication for
// search. The board identifier is "@handle" or "#tag".
type X struct {
	client  *fetch.Client
	baseURL string
}

// NewX builds the adapter.
func NewX(client *fetch.Client) *X {
	return &X{client: client, baseURL: "https://nitter.net"}
}

// Site implements Adapter.
func (x *X) Site() string { return models.SiteX }

// Fetch implements Adapter.
func (x *X) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	board := strings.TrimSpace(opts.Board)
	if board == "" {
		return nil, &models.CrawlError{
			Code: models.ErrCodeInvalidParameters, Detail: "handle or hashtag required",
			Site: models.SiteX,
		}
	}

	src := &xSource{adapter: x, board: board}
	tuning := crawl.Tuning{Parallelism: 1, ProgressFloor: 35, EmptyPageLimit: 1}
	return crawl.Run(ctx, models.SiteX, board, src, opts, tuning, progress)
}

// xSource is a single-page source; cursor pagination on mirrors is too
// unstable to walk reliably.
type xSource struct {
	adapter *X
	board   string
}

func (s *xSource) PageSize() int { return 20 }

func (s *xSource) pageURL() string {
	switch {
	case strings.HasPrefix(s.board, "@"):
		return fmt.Sprintf("%s/%s", s.adapter.baseURL, strings.TrimPrefix(s.board, "@"))
	case strings.HasPrefix(s.board, "#"):
		return fmt.Sprintf("%s/search?f=tweets&q=%s", s.adapter.baseURL, url.QueryEscape(s.board))
	default:
		return fmt.Sprintf("%s/search?f=tweets&q=%s", s.adapter.baseURL, url.QueryEscape(s.board))
	}
}

func (s *xSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	if page > 1 {
		return nil, nil
	}

	doc, err := s.adapter.client.GetDocument(ctx, models.SiteX, s.pageURL())
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	doc.Find("div.timeline-item, article.tweet").Each(func(_ int, item *goquery.Selection) {
		text := firstText(item, ".tweet-content", ".tweet-text", "p")
		if text == "" {
			return
		}

		href, _ := item.Find("a.tweet-link, a.permalink").First().Attr("href")
		link := absoluteURL("https://x.com", strings.TrimSuffix(href, "#m"))
		if href == "" {
			return
		}

		createdAt := firstText(item, ".tweet-date a", "time")
		if attr, ok := item.Find(".tweet-date a").Attr("title"); ok && attr != "" {
			createdAt = attr
		}

		post := models.Post{
			TitleOriginal: truncate(text, 200),
			Link:          link,
			Body:          text,
			Score:         firstCount(item, ".tweet-stat .icon-container:has(.icon-heart)", ".likes"),
			Comments:      firstCount(item, ".tweet-stat .icon-container:has(.icon-comment)", ".replies"),
			CreatedAt:     createdAt,
			Author:        firstText(item, ".username", ".fullname"),
			Board:         s.board,
			Site:          models.SiteX,
		}
		if t, ok := dateparse.Parse(createdAt); ok {
			post.CreatedTime = &t
		}
		if img, ok := item.Find(".attachment img, .still-image img").Attr("src"); ok {
			post.MediaURL = absoluteURL(s.adapter.baseURL, img)
		}
		post.NormalizeThumbnail()
		posts = append(posts, post)
	})

	return posts, nil
}
