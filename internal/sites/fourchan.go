// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package sites

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// FourChan reads the read-only JSON API at a.4cdn.org. The catalog
// endpoint returns every thread of a board at once, so the source is a
// single logical page.
type FourChan struct {
	client  *fetch.Client
	apiBase string
	imgBase string
}

// NewFourChan builds the adapter.
func NewFourChan(client *fetch.Client) *FourChan {
	return &FourChan{
		client:  client,
		apiBase: "https://a.4cdn.org",
		imgBase: "https://i.4cdn.org",
	}
}

// Site implements Adapter.
func (f *FourChan) Site() string { return models.SiteFourChan }

// Fetch implements Adapter.
func (f *FourChan) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	board := strings.Trim(opts.Board, "/")
	if board == "" {
		return nil, &models.CrawlError{
			Code: models.ErrCodeInvalidParameters, Detail: "board code required",
			Site: models.SiteFourChan,
		}
	}

	src := &fourChanSource{adapter: f, board: board}
	tuning := crawl.Tuning{Parallelism: 1, ProgressFloor: 40, EmptyPageLimit: 1}
	return crawl.Run(ctx, models.SiteFourChan, board, src, opts, tuning, progress)
}

type fourChanSource struct {
	adapter *FourChan
	board   string
}

func (s *fourChanSource) PageSize() int { return 150 }

func (s *fourChanSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	if page > 1 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/%s/catalog.json", s.adapter.apiBase, s.board)

	var catalog []fourChanPage
	if err := s.adapter.client.GetJSON(ctx, models.SiteFourChan, endpoint, &catalog); err != nil {
		return nil, err
	}

	var posts []models.Post
	for _, cp := range catalog {
		for _, thread := range cp.Threads {
			title := html.UnescapeString(thread.Sub)
			if title == "" {
				title = truncate(stripTags(html.UnescapeString(thread.Com)), 120)
			}
			if title == "" {
				continue
			}

			created := time.Unix(thread.Time, 0).UTC()
			post := models.Post{
				TitleOriginal: title,
				Link:          fmt.Sprintf("https://boards.4chan.org/%s/thread/%d", s.board, thread.No),
				Body:          truncate(stripTags(html.UnescapeString(thread.Com)), 300),
				Comments:      max(thread.Replies, 0),
				CreatedAt:     created.Format("2006-01-02 15:04"),
				CreatedTime:   &created,
				Author:        thread.Name,
				Board:         s.board,
				Site:          models.SiteFourChan,
			}
			if thread.Tim != 0 && thread.Ext != "" {
				post.MediaURL = fmt.Sprintf("%s/%s/%d%s", s.adapter.imgBase, s.board, thread.Tim, thread.Ext)
				post.ThumbnailURL = fmt.Sprintf("%s/%s/%ds.jpg", s.adapter.imgBase, s.board, thread.Tim)
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

// fourChanPage is one page of the catalog response.
type fourChanPage struct {
	Page    int `json:"page"`
	Threads []struct {
		No      int64  `json:"no"`
		Sub     string `json:"sub"`
		Com     string `json:"com"`
		Name    string `json:"name"`
		Time    int64  `json:"time"`
		Replies int    `json:"replies"`
		Images  int    `json:"images"`
		Tim     int64  `json:"tim"`
		Ext     string `json:"ext"`
	} `json:"threads"`
}

// stripTags removes the simple HTML markup 4chan embeds in comments.
func stripTags(s string) string {
	s = strings.ReplaceAll(s, "<br>", " ")
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
