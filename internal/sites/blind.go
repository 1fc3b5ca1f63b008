// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package sites

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/trawler/internal/boards"
	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/dateparse"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// Blind scrapes topic pages at /kr/topics/{id}. Dates arrive as relative
// strings in Korean or English depending on the topic.
type Blind struct {
	client   *fetch.Client
	resolver *boards.Resolver
	baseURL  string
}

// NewBlind builds the adapter.
func NewBlind(client *fetch.Client, resolver *boards.Resolver) *Blind {
	return &Blind{
		client:   client,
		resolver: resolver,
		baseURL:  "https://www.teamblind.com",
	}
}

// Site implements Adapter.
func (b *Blind) Site() string { return models.SiteBlind }

// blindSorts maps the normalized sort vocabulary onto Blind's query values.
var blindSorts = map[string]string{
	models.SortHot: "popular",
	models.SortNew: "recent",
	models.SortTop: "popular",
}

// Fetch implements Adapter.
func (b *Blind) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	topicID, err := b.resolver.ResolveTopic(opts.Board)
	if err != nil {
		return nil, err
	}

	src := &blindSource{adapter: b, topicID: topicID, sort: blindSorts[opts.Sort]}
	tuning := crawl.Tuning{Parallelism: 2, ProgressFloor: 30}
	return crawl.Run(ctx, models.SiteBlind, topicID, src, opts, tuning, progress)
}

type blindSource struct {
	adapter *Blind
	topicID string
	sort    string
}

func (s *blindSource) PageSize() int { return 20 }

func (s *blindSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	u := fmt.Sprintf("%s/kr/topics/%s?page=%d", s.adapter.baseURL, s.topicID, page)
	if s.sort != "" {
		u += "&sort=" + s.sort
	}

	doc, err := s.adapter.client.GetDocument(ctx, models.SiteBlind, u)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	doc.Find("div.article-list-pre, article.article-preview, li.topic-post").Each(func(_ int, item *goquery.Selection) {
		titleLink := item.Find("a.tit, h3 a, a.article-link").First()
		title := firstText(item, "a.tit", "h3 a", "a.article-link", ".tit")
		href, _ := titleLink.Attr("href")
		if title == "" || href == "" {
			return
		}

		createdAt := firstText(item, ".date", "time", ".article-info .time")

		post := models.Post{
			TitleOriginal: title,
			Link:          absoluteURL(s.adapter.baseURL, href),
			Body:          firstText(item, ".pre-txt", ".article-body-preview", "p.txt"),
			Views:         firstCount(item, ".view", ".views", "span.cnt-view"),
			Score:         firstCount(item, ".like", ".likes", "span.cnt-like"),
			Comments:      firstCount(item, ".comment", ".comments", "span.cnt-comment", "a.cmt"),
			CreatedAt:     createdAt,
			Author:        firstText(item, ".name", ".author", ".article-info .company"),
			Board:         s.topicID,
			Site:          models.SiteBlind,
		}
		if t, ok := dateparse.Parse(createdAt); ok {
			post.CreatedTime = &t
		}
		posts = append(posts, post)
	})

	return posts, nil
}
