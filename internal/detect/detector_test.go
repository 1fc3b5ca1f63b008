// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package detect

import (
	"context"
	"testing"

	"github.com/tomtom215/trawler/internal/models"
)

func TestDetectDomains(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{"https://www.reddit.com/r/golang", models.SiteReddit},
		{"https://old.reddit.com/r/programming/top", models.SiteReddit},
		{"reddit.com/r/golang", models.SiteReddit},
		{"https://gall.dcinside.com/board/lists/?id=programming", models.SiteDCInside},
		{"https://www.teamblind.com/kr/topics/블라블라", models.SiteBlind},
		{"https://www.bbc.com/news", models.SiteBBC},
		{"https://www.bbc.co.uk/sport", models.SiteBBC},
		{"https://boards.4chan.org/g/", models.SiteFourChan},
		{"https://boards.4channel.org/a/catalog", models.SiteFourChan},
		{"https://x.com/NASA", models.SiteX},
		{"https://twitter.com/NASA", models.SiteX},
		{"https://lemmy.world/c/technology", models.SiteLemmy},
		{"https://programming.dev/c/golang", models.SiteLemmy},
		{"https://example.com/some/forum", models.SiteUniversal},
	}

	for _, tt := range tests {
		if got := d.Detect(ctx, tt.input); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectKeywords(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{"디시인사이드 프로그래밍", models.SiteDCInside},
		{"디시 게임", models.SiteDCInside},
		{"블라인드 개발자", models.SiteBlind},
		{"reddit golang", models.SiteReddit},
		{"subreddit news", models.SiteReddit},
		{"트위터 속보", models.SiteX},
		{"bbc sport", models.SiteBBC},
		{"레미 technology", models.SiteLemmy},
		{"그냥 아무 검색어", models.SiteUniversal},
		{"", models.SiteUniversal},
	}

	for _, tt := range tests {
		if got := d.Detect(ctx, tt.input); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectIdentifierShapes(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	tests := []struct {
		input string
		want  string
	}{
		{"r/golang", models.SiteReddit},
		{"technology@lemmy.world", models.SiteLemmy},
		{"!technology@lemmy.world", models.SiteLemmy},
		{"/g/", models.SiteFourChan},
		{"@NASA", models.SiteX},
		{"#golang", models.SiteX},
	}

	for _, tt := range tests {
		if got := d.Detect(ctx, tt.input); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractBoard(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name  string
		input string
		site  string
		want  string
	}{
		{"reddit url", "https://www.reddit.com/r/golang/top", models.SiteReddit, "r/golang"},
		{"reddit bare", "r/golang", models.SiteReddit, "r/golang"},
		{"reddit keyword", "reddit golang", models.SiteReddit, "r/golang"},
		{"dcinside url", "https://gall.dcinside.com/board/lists/?id=programming", models.SiteDCInside, "programming"},
		{"dcinside mgallery", "https://gall.dcinside.com/mgallery/board/lists/?id=vr_games&page=2", models.SiteDCInside, "vr_games"},
		{"dcinside keyword", "디시인사이드 프로그래밍", models.SiteDCInside, "프로그래밍"},
		{"blind url", "https://www.teamblind.com/kr/topics/dev-lounge", models.SiteBlind, "dev-lounge"},
		{"blind keyword", "블라인드 개발자", models.SiteBlind, "개발자"},
		{"bbc section", "https://www.bbc.com/news/world", models.SiteBBC, "news"},
		{"bbc front page", "https://www.bbc.com/", models.SiteBBC, ""},
		{"lemmy url", "https://lemmy.world/c/technology", models.SiteLemmy, "technology@lemmy.world"},
		{"lemmy bare", "technology", models.SiteLemmy, "technology"},
		{"lemmy full", "!technology@lemmy.world", models.SiteLemmy, "technology@lemmy.world"},
		{"4chan url", "https://boards.4chan.org/g/catalog", models.SiteFourChan, "/g/"},
		{"4chan bare", "g", models.SiteFourChan, "/g/"},
		{"x profile", "https://x.com/NASA", models.SiteX, "@NASA"},
		{"x hashtag path", "https://x.com/hashtag/golang", models.SiteX, "#golang"},
		{"x search", "https://x.com/search?q=%23golang", models.SiteX, "#golang"},
		{"universal passthrough", "https://example.com/forum", models.SiteUniversal, "https://example.com/forum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.ExtractBoard(tt.input, tt.site); got != tt.want {
				t.Errorf("ExtractBoard(%q, %s) = %q, want %q", tt.input, tt.site, got, tt.want)
			}
		})
	}
}

// Extracted identifiers feed back through detection onto the same site.
func TestDetectionIdempotent(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	inputs := []string{
		"https://www.reddit.com/r/golang",
		"r/golang",
		"https://lemmy.world/c/technology",
		"https://boards.4chan.org/g/",
		"https://x.com/NASA",
		"https://example.com/forum",
	}

	for _, input := range inputs {
		site := d.Detect(ctx, input)
		board := d.ExtractBoard(input, site)
		if again := d.Detect(ctx, board); again != site && site != models.SiteUniversal {
			t.Errorf("Detect(ExtractBoard(%q)) = %q, want %q", input, again, site)
		}
	}
}
