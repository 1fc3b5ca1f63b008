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
	"time"

	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// DefaultLemmyInstance hosts communities named without an instance.
const DefaultLemmyInstance = "lemmy.world"

const lemmyPageSize = 50

// lemmySorts maps the normalized sort vocabulary onto the Lemmy API.
var lemmySorts = map[string]string{
	models.SortHot:    "Hot",
	models.SortNew:    "New",
	models.SortTop:    "TopAll",
	models.SortRising: "Active",
	models.SortBest:   "TopAll",
}

// lemmyTopWindows refines Top sorts by time filter.
var lemmyTopWindows = map[string]string{
	models.TimeFilterHour:  "TopHour",
	models.TimeFilterDay:   "TopDay",
	models.TimeFilterWeek:  "TopWeek",
	models.TimeFilterMonth: "TopMonth",
	models.TimeFilterYear:  "TopYear",
	models.TimeFilterAll:   "TopAll",
}

// Lemmy reads communities through the public REST API of the community's
// own instance. The board identifier is community@instance; a bare name
// defaults to lemmy.world.
type Lemmy struct {
	client *fetch.Client

	// scheme is https in production; tests point it at httptest.
	scheme   string
	hostOver string
}

// NewLemmy builds the adapter.
func NewLemmy(client *fetch.Client) *Lemmy {
	return &Lemmy{client: client, scheme: "https"}
}

// Site implements Adapter.
func (l *Lemmy) Site() string { return models.SiteLemmy }

// Fetch implements Adapter.
func (l *Lemmy) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	community, instance := splitCommunity(opts.Board)
	if community == "" {
		return nil, &models.CrawlError{
			Code: models.ErrCodeInvalidParameters, Detail: "community required",
			Site: models.SiteLemmy,
		}
	}

	sort := lemmySorts[opts.Sort]
	if sort == "" {
		sort = "Hot"
	}
	if strings.HasPrefix(sort, "Top") {
		if refined, ok := lemmyTopWindows[opts.TimeFilter]; ok {
			sort = refined
		}
	}

	src := &lemmySource{adapter: l, community: community, instance: instance, sort: sort}
	tuning := crawl.Tuning{Parallelism: 2, ProgressFloor: 30}
	return crawl.Run(ctx, models.SiteLemmy, opts.Board, src, opts, tuning, progress)
}

// splitCommunity splits community@instance, defaulting the instance.
func splitCommunity(board string) (community, instance string) {
	board = strings.TrimPrefix(strings.TrimSpace(board), "!")
	if board == "" {
		return "", ""
	}
	if i := strings.IndexByte(board, '@'); i >= 0 {
		return board[:i], board[i+1:]
	}
	return board, DefaultLemmyInstance
}

type lemmySource struct {
	adapter   *Lemmy
	community string
	instance  string
	sort      string
}

func (s *lemmySource) PageSize() int { return lemmyPageSize }

func (s *lemmySource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	host := s.instance
	if s.adapter.hostOver != "" {
		host = s.adapter.hostOver
	}

	q := url.Values{}
	q.Set("community_name", s.community)
	q.Set("sort", s.sort)
	q.Set("limit", fmt.Sprintf("%d", lemmyPageSize))
	q.Set("page", fmt.Sprintf("%d", page))

	endpoint := fmt.Sprintf("%s://%s/api/v3/post/list?%s", s.adapter.scheme, host, q.Encode())

	var listing lemmyListing
	if err := s.adapter.client.GetJSON(ctx, models.SiteLemmy, endpoint, &listing); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(listing.Posts))
	for _, view := range listing.Posts {
		p := view.Post

		created, _ := time.Parse(time.RFC3339, p.Published)
		post := models.Post{
			TitleOriginal: p.Name,
			Link:          fmt.Sprintf("https://%s/post/%d", s.instance, p.ID),
			ExternalURL:   p.URL,
			Body:          truncate(p.Body, 300),
			Score:         max(view.Counts.Score, 0),
			Comments:      max(view.Counts.Comments, 0),
			CreatedAt:     p.Published,
			Author:        view.Creator.Name,
			Board:         s.community + "@" + s.instance,
			Site:          models.SiteLemmy,
		}
		if !created.IsZero() {
			utc := created.UTC()
			post.CreatedTime = &utc
		}
		if p.ThumbnailURL != "" {
			post.ThumbnailURL = p.ThumbnailURL
		}
		if models.HasImageURL(p.URL) {
			post.MediaURL = p.URL
		}
		post.NormalizeThumbnail()
		posts = append(posts, post)
	}
	return posts, nil
}

// Lemmy API wire shapes, trimmed to the consumed fields.
type lemmyListing struct {
	Posts []struct {
		Post struct {
			ID           int    `json:"id"`
			Name         string `json:"name"`
			URL          string `json:"url"`
			Body         string `json:"body"`
			ThumbnailURL string `json:"thumbnail_url"`
			Published    string `json:"published"`
		} `json:"post"`
		Creator struct {
			Name string `json:"name"`
		} `json:"creator"`
		Counts struct {
			Score    int `json:"score"`
			Comments int `json:"comments"`
		} `json:"counts"`
	} `json:"posts"`
}
