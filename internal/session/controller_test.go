// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/crawl"
	"github.com/tomtom215/trawler/internal/detect"
	"github.com/tomtom215/trawler/internal/dispatch"
	"github.com/tomtom215/trawler/internal/events"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/translate"
)

// scriptAdapter plays a fixed result or blocks until cancellation.
type scriptAdapter struct {
	site  string
	posts []models.Post
	err   error
	block bool
}

func (a *scriptAdapter) Site() string { return a.site }

func (a *scriptAdapter) Fetch(ctx context.Context, _ models.CrawlOptions, progress crawl.ProgressFunc) ([]models.Post, error) {
	if a.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if progress != nil {
		progress(models.ProgressFrame{Progress: 40, Step: models.StepCollecting, Site: a.site})
	}
	return a.posts, a.err
}

func testConfig() config.Config {
	return config.Config{
		Crawl: config.CrawlConfig{MaxRankRange: 100, MaxDateRangeDays: 365},
	}
}

func newTestController(t *testing.T, adapter *scriptAdapter, translator *translate.Client) (*Controller, string, func()) {
	t.Helper()

	cfg := testConfig()
	d := dispatch.NewDispatcher(cfg.Crawl)
	d.Register(adapter)

	c := NewController(cfg, detect.NewDetector(nil), d, translator, nil, events.NewBus())

	srv := httptest.NewServer(http.HandlerFunc(c.HandleWS))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return c, wsURL, srv.Close
}

func dialAndSend(t *testing.T, wsURL string, req models.CrawlRequest) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	return conn
}

// readUntilTerminal collects frames until done/cancel/error or timeout.
func readUntilTerminal(t *testing.T, conn *websocket.Conn) []map[string]interface{} {
	t.Helper()

	var frames []map[string]interface{}
	deadline := time.Now().Add(10 * time.Second)

	for {
		_ = conn.SetReadDeadline(deadline)
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("reading frames: %v (got %d so far)", err, len(frames))
		}
		frames = append(frames, frame)

		if frame["done"] == true || frame["cancelled"] == true || frame["error_code"] != nil {
			return frames
		}
	}
}

func TestSessionHappyPath(t *testing.T) {
	adapter := &scriptAdapter{
		site: models.SiteUniversal,
		posts: []models.Post{
			{Rank: 1, TitleOriginal: "First post", Link: "https://forum.example.com/1", Site: models.SiteUniversal},
			{Rank: 2, TitleOriginal: "Second post", Link: "https://forum.example.com/2", Site: models.SiteUniversal},
		},
	}
	_, wsURL, closeSrv := newTestController(t, adapter, nil)
	defer closeSrv()

	conn := dialAndSend(t, wsURL, models.CrawlRequest{Input: "https://forum.example.com/list", Start: 1, End: 2})
	defer conn.Close()

	frames := readUntilTerminal(t, conn)

	first := frames[0]
	details, _ := first["details"].(map[string]interface{})
	if id, _ := details["crawl_id"].(string); id == "" {
		t.Error("first frame must carry the crawl id")
	}

	last := frames[len(frames)-1]
	if last["done"] != true {
		t.Fatalf("terminal frame = %v", last)
	}
	if last["detected_site"] != models.SiteUniversal {
		t.Errorf("detected_site = %v", last["detected_site"])
	}
	data, _ := last["data"].([]interface{})
	if len(data) != 2 {
		t.Errorf("done data = %d posts", len(data))
	}

	// Progress is monotonically non-decreasing and within [0,100].
	lastProgress := -1.0
	for _, f := range frames[:len(frames)-1] {
		p, ok := f["progress"].(float64)
		if !ok {
			continue
		}
		if p < lastProgress || p < 0 || p > 100 {
			t.Errorf("progress %v after %v", p, lastProgress)
		}
		lastProgress = p
	}
}

func TestSessionCancellation(t *testing.T) {
	adapter := &scriptAdapter{site: models.SiteUniversal, block: true}
	c, wsURL, closeSrv := newTestController(t, adapter, nil)
	defer closeSrv()

	conn := dialAndSend(t, wsURL, models.CrawlRequest{Input: "https://forum.example.com", Start: 1, End: 5})
	defer conn.Close()

	// The first frame carries the session id used by the cancel endpoint.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first map[string]interface{}
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	details, _ := first["details"].(map[string]interface{})
	id, _ := details["crawl_id"].(string)
	if id == "" {
		t.Fatal("no crawl id in first frame")
	}

	resp := c.Cancel(id)
	if !resp.Success || resp.CrawlID != id {
		t.Fatalf("cancel response = %+v", resp)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("no cancel frame within deadline: %v", err)
		}
		if frame["cancelled"] == true {
			return
		}
		if frame["done"] == true || frame["error_code"] != nil {
			t.Fatalf("wrong terminal frame: %v", frame)
		}
	}
}

func TestCancelUnknownSessionStillSucceeds(t *testing.T) {
	c, _, closeSrv := newTestController(t, &scriptAdapter{site: models.SiteUniversal}, nil)
	defer closeSrv()

	resp := c.Cancel("2f1f6f60-0000-4000-8000-000000000000")
	if !resp.Success {
		t.Fatal("cancel must acknowledge unknown ids")
	}
}

func TestSessionErrorFrameLocalized(t *testing.T) {
	adapter := &scriptAdapter{
		site: models.SiteUniversal,
		err:  models.NewCrawlError(models.ErrCodeNoPostsFound, "0 posts after filters"),
	}
	_, wsURL, closeSrv := newTestController(t, adapter, nil)
	defer closeSrv()

	conn := dialAndSend(t, wsURL, models.CrawlRequest{Input: "https://forum.example.com", Language: "ko"})
	defer conn.Close()

	frames := readUntilTerminal(t, conn)
	last := frames[len(frames)-1]

	if last["error_code"] != models.ErrCodeNoPostsFound {
		t.Fatalf("error_code = %v", last["error_code"])
	}
	detail, _ := last["error_detail"].(string)
	if detail != reasonCatalog["ko"][models.ErrCodeNoPostsFound] {
		t.Errorf("error_detail = %q, want korean reason", detail)
	}
}

func TestSessionMalformedConfigFrame(t *testing.T) {
	_, wsURL, closeSrv := newTestController(t, &scriptAdapter{site: models.SiteUniversal}, nil)
	defer closeSrv()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame map[string]interface{}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame["error_code"] != models.ErrCodeInvalidParameters {
		t.Fatalf("frame = %v", frame)
	}
}

func TestSessionTranslationInterleave(t *testing.T) {
	translateSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translated_text":"A translated title"}`))
	}))
	defer translateSrv.Close()

	adapter := &scriptAdapter{
		site: models.SiteUniversal,
		posts: []models.Post{
			{Rank: 1, TitleOriginal: "한국어 제목", Link: "https://forum.example.com/1"},
			{Rank: 2, TitleOriginal: "Already english", Link: "https://forum.example.com/2"},
		},
	}
	translator := translate.NewClient(config.TranslateConfig{APIKey: "k", BaseURL: translateSrv.URL})
	_, wsURL, closeSrv := newTestController(t, adapter, translator)
	defer closeSrv()

	conn := dialAndSend(t, wsURL, models.CrawlRequest{
		Input:           "https://forum.example.com",
		Translate:       true,
		TargetLanguages: []string{"en"},
	})
	defer conn.Close()

	frames := readUntilTerminal(t, conn)
	last := frames[len(frames)-1]
	if last["done"] != true {
		t.Fatalf("terminal = %v", last)
	}

	data, _ := last["data"].([]interface{})
	if len(data) != 2 {
		t.Fatalf("data = %d posts", len(data))
	}
	first, _ := data[0].(map[string]interface{})
	if first["title_translated"] != "A translated title" {
		t.Errorf("korean title not translated: %v", first["title_translated"])
	}
	second, _ := data[1].(map[string]interface{})
	if second["title_translated"] != nil {
		t.Errorf("english title should stay untranslated, got %v", second["title_translated"])
	}

	summary, _ := last["summary"].(map[string]interface{})
	if summary["translated"] != true {
		t.Error("summary should mark the session translated")
	}
}

func TestProductionOriginCheck(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Environment = "production"
	cfg.Security.AllowedOrigins = []string{"app.example.com"}

	d := dispatch.NewDispatcher(cfg.Crawl)
	d.Register(&scriptAdapter{site: models.SiteUniversal})
	c := NewController(cfg, detect.NewDetector(nil), d, nil, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(c.HandleWS))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Disallowed origin is refused at the handshake.
	header := http.Header{"Origin": []string{"https://evil.example.net"}}
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		t.Fatal("handshake should fail for disallowed origin")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	// Whitelisted origin connects.
	header = http.Header{"Origin": []string{"https://app.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("whitelisted origin rejected: %v", err)
	}
	conn.Close()
}

func TestLocalizedReason(t *testing.T) {
	tests := []struct {
		code, lang string
		want       string
	}{
		{models.ErrCodeTimeout, "en", reasonCatalog["en"][models.ErrCodeTimeout]},
		{models.ErrCodeTimeout, "ko", reasonCatalog["ko"][models.ErrCodeTimeout]},
		{models.ErrCodeTimeout, "fr", reasonCatalog["en"][models.ErrCodeTimeout]},
		{"mystery_code", "en", "raw detail"},
	}

	for _, tt := range tests {
		if got := localizedReason(tt.code, tt.lang, "raw detail"); got != tt.want {
			t.Errorf("localizedReason(%s, %s) = %q, want %q", tt.code, tt.lang, got, tt.want)
		}
	}
}

func TestSweepStale(t *testing.T) {
	c, _, closeSrv := newTestController(t, &scriptAdapter{site: models.SiteUniversal}, nil)
	defer closeSrv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	old := &Session{ID: "old", created: time.Now().Add(-time.Hour), cancel: cancel}
	fresh := &Session{ID: "fresh", created: time.Now(), cancel: func() {}}
	c.register(old)
	c.register(fresh)

	c.sweepStale(time.Now())

	if c.ActiveCount() != 1 {
		t.Fatalf("active = %d, want only the fresh session", c.ActiveCount())
	}
	if ctx.Err() == nil {
		t.Error("stale session context should be cancelled")
	}
}
