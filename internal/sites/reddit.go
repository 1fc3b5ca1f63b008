// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package sites

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/models"
)

// Reddit API constants. Listings page at 100 items; with active filters
// the adapter over-fetches three times the requested range, capped.
const (
	redditPageSize    = 100
	redditOverFetch   = 3
	redditMaxOverFeed = 2000
	redditTokenPath   = "/api/v1/access_token"
)

var redditSorts = map[string]bool{
	models.SortHot: true, models.SortNew: true, models.SortTop: true,
	models.SortRising: true, models.SortBest: true,
}

// redditTimeWindows maps time_filter values onto the API's t= parameter
// for top listings.
var redditTimeWindows = map[string]string{
	models.TimeFilterHour:  "hour",
	models.TimeFilterDay:   "day",
	models.TimeFilterWeek:  "week",
	models.TimeFilterMonth: "month",
	models.TimeFilterYear:  "year",
	models.TimeFilterAll:   "all",
}

// directMediaHosts are hosts whose post URL is itself the media asset.
var directMediaHosts = map[string]bool{
	"i.redd.it":   true,
	"v.redd.it":   true,
	"i.imgur.com": true,
	"imgur.com":   true,
}

// Reddit fetches subreddit listings through the authenticated OAuth2 API.
// The HTTP client carries a client-credentials token source; politeness
// (rate limit, breaker) still runs through the shared fetch client.
type Reddit struct {
	client *fetch.Client
	http   *http.Client

	apiBase   string
	userAgent string
}

// NewReddit builds the adapter. The OAuth2 client is created here and
// injected into every request; credentials never touch a global.
func NewReddit(client *fetch.Client, cfg config.RedditConfig) *Reddit {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     "https://www.reddit.com" + redditTokenPath,
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "trawler/1.0"
	}

	return &Reddit{
		client:    client,
		http:      cc.Client(context.Background()),
		apiBase:   "https://oauth.reddit.com",
		userAgent: ua,
	}
}

// Site implements Adapter.
func (r *Reddit) Site() string { return models.SiteReddit }

// Fetch implements Adapter.
func (r *Reddit) Fetch(ctx context.Context, opts models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	board := strings.TrimPrefix(opts.Board, "r/")
	if board == "" {
		return nil, &models.CrawlError{
			Code: models.ErrCodeInvalidParameters, Detail: "subreddit required",
			Site: models.SiteReddit,
		}
	}

	sort := opts.Sort
	if sort == "" || !redditSorts[sort] {
		sort = models.SortHot
	}

	src := &redditSource{adapter: r, board: board, sort: sort, opts: opts}

	tuning := crawl.Tuning{Parallelism: 1, ProgressFloor: 30}
	if opts.HasFilters() {
		maxSeen := opts.TargetCount() * redditOverFetch
		if maxSeen > redditMaxOverFeed || maxSeen <= 0 {
			maxSeen = redditMaxOverFeed
		}
		tuning.MaxSeen = maxSeen
	}

	return crawl.Run(ctx, models.SiteReddit, board, src, opts, tuning, progress)
}

// redditSource pages through a listing with the API's after cursor, so
// pages must be fetched strictly in order (Parallelism 1).
type redditSource struct {
	adapter *Reddit
	board   string
	sort    string
	opts    models.CrawlOptions

	after    string
	done     bool
	lastPage int
}

func (s *redditSource) PageSize() int { return redditPageSize }

func (s *redditSource) FetchPage(ctx context.Context, page int) ([]models.Post, error) {
	if s.done && page > s.lastPage {
		return nil, nil
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", redditPageSize))
	q.Set("raw_json", "1")
	if s.after != "" {
		q.Set("after", s.after)
	}
	if s.sort == models.SortTop {
		if window, ok := redditTimeWindows[s.opts.TimeFilter]; ok {
			q.Set("t", window)
		}
	}

	endpoint := fmt.Sprintf("%s/r/%s/%s?%s", s.adapter.apiBase, s.board, s.sort, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.WrapCrawlError(models.ErrCodeInvalidURL, models.SiteReddit, err)
	}
	req.Header.Set("User-Agent", s.adapter.userAgent)

	body, err := s.adapter.client.DoWith(ctx, models.SiteReddit, s.adapter.http, req)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, models.WrapCrawlError(models.ErrCodeCrawlingError, models.SiteReddit, err)
	}

	s.after = listing.Data.After
	if s.after == "" {
		s.done = true
		s.lastPage = page
	}

	posts := make([]models.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		if p.Over18 && !s.opts.IncludeNSFW {
			continue
		}
		posts = append(posts, s.toPost(p))
	}
	return posts, nil
}

func (s *redditSource) toPost(p redditPost) models.Post {
	created := time.Unix(int64(p.CreatedUTC), 0).UTC()

	post := models.Post{
		TitleOriginal: p.Title,
		Link:          "https://www.reddit.com" + p.Permalink,
		Body:          truncate(p.Selftext, 300),
		Score:         max(p.Score, 0),
		Comments:      max(p.NumComments, 0),
		CreatedAt:     created.Format("2006-01-02 15:04"),
		CreatedTime:   &created,
		Author:        p.Author,
		Board:         s.board,
		Site:          models.SiteReddit,
	}

	if p.URL != "" && !strings.Contains(p.URL, p.Permalink) {
		post.ExternalURL = p.URL
	}

	post.MediaURL = p.mediaURL()
	if thumb := p.thumbnailURL(); thumb != "" {
		post.ThumbnailURL = thumb
	}
	post.NormalizeThumbnail()

	if p.LinkFlairText != "" {
		post.SetExtra("flair", p.LinkFlairText)
	}
	if p.Over18 {
		post.SetExtra("nsfw", true)
	}
	return post
}

// Reddit listing wire shapes, trimmed to the consumed fields.
type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title         string  `json:"title"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	Selftext      string  `json:"selftext"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	Author        string  `json:"author"`
	Over18        bool    `json:"over_18"`
	Thumbnail     string  `json:"thumbnail"`
	LinkFlairText string  `json:"link_flair_text"`

	Preview struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`

	MediaMetadata map[string]struct {
		S struct {
			U string `json:"u"`
		} `json:"s"`
	} `json:"media_metadata"`

	SecureMedia *struct {
		RedditVideo *struct {
			FallbackURL string `json:"fallback_url"`
		} `json:"reddit_video"`
	} `json:"secure_media"`
}

// mediaURL applies the layered media extraction: direct URL for known
// media hosts, then preview source, then the first gallery item, then
// the video fallback URL.
func (p redditPost) mediaURL() string {
	if u, err := url.Parse(p.URL); err == nil && directMediaHosts[strings.ToLower(u.Hostname())] {
		return p.URL
	}

	if len(p.Preview.Images) > 0 {
		if src := p.Preview.Images[0].Source.URL; src != "" {
			return strings.ReplaceAll(src, "&amp;", "&")
		}
	}

	for _, item := range p.MediaMetadata {
		if item.S.U != "" {
			return strings.ReplaceAll(item.S.U, "&amp;", "&")
		}
	}

	if p.SecureMedia != nil && p.SecureMedia.RedditVideo != nil {
		return p.SecureMedia.RedditVideo.FallbackURL
	}
	return ""
}

// thumbnailURL filters reddit's placeholder thumbnail tokens.
func (p redditPost) thumbnailURL() string {
	t := p.Thumbnail
	switch t {
	case "", "self", "default", "nsfw", "spoiler", "image":
		return ""
	}
	return t
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
