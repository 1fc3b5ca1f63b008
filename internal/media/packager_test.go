// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package media

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/models"
)

func testPackager(t *testing.T, cfg config.MediaConfig) *Packager {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	p, err := NewPackager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPackage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cat.jpg":
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/dog.png":
			_, _ = w.Write([]byte("png-bytes"))
		case "/broken.gif":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := testPackager(t, config.MediaConfig{RetryAttempts: 1})

	posts := []models.Post{
		{Link: "x", MediaURL: srv.URL + "/cat.jpg"},
		{Link: "x", MediaURL: srv.URL + "/dog.png"},
		{Link: "x", MediaURL: srv.URL + "/broken.gif"},
	}

	var frames int
	name, err := p.Package(context.Background(), posts, func(done, total int) {
		frames++
		if total != 3 {
			t.Errorf("total = %d", total)
		}
	})
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if !strings.HasPrefix(name, "posts_media_") || !strings.HasSuffix(name, ".zip") {
		t.Fatalf("archive name = %q", name)
	}
	if frames != 3 {
		t.Errorf("progress frames = %d, want 3", frames)
	}

	full, err := p.ArchivePath(name)
	if err != nil {
		t.Fatalf("ArchivePath: %v", err)
	}

	zr, err := zip.OpenReader(full)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	got := make(map[string]bool)
	for _, f := range zr.File {
		got[f.Name] = true
	}
	if len(got) != 2 || !got["cat.jpg"] || !got["dog.png"] {
		t.Errorf("archive entries = %v, want the two downloadable files", got)
	}
}

func TestPackageNoMedia(t *testing.T) {
	p := testPackager(t, config.MediaConfig{})

	_, err := p.Package(context.Background(), []models.Post{{Link: "https://example.com/article"}}, nil)
	if !errors.Is(err, ErrNoMedia) {
		t.Fatalf("err = %v, want ErrNoMedia", err)
	}
}

func TestPackageOversizeFileSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big.jpg" {
			_, _ = w.Write(make([]byte, 2048))
			return
		}
		_, _ = w.Write([]byte("small"))
	}))
	defer srv.Close()

	p := testPackager(t, config.MediaConfig{MaxFileBytes: 1024, RetryAttempts: 1})

	posts := []models.Post{
		{Link: "x", MediaURL: srv.URL + "/big.jpg"},
		{Link: "x", MediaURL: srv.URL + "/small.jpg"},
	}

	name, err := p.Package(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}

	full, _ := p.ArchivePath(name)
	zr, err := zip.OpenReader(full)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	if len(zr.File) != 1 || zr.File[0].Name != "small.jpg" {
		t.Fatalf("archive should hold only the small file, got %d entries", len(zr.File))
	}
}

func TestArchivePathRejectsTraversal(t *testing.T) {
	p := testPackager(t, config.MediaConfig{})

	for _, name := range []string{
		"../etc/passwd",
		"posts_media_1.zip/../x",
		"notes.txt",
		"posts_media_abc.zip",
	} {
		if _, err := p.ArchivePath(name); err == nil {
			t.Errorf("ArchivePath(%q) should fail", name)
		}
	}
}

func TestSweepOnce(t *testing.T) {
	dir := t.TempDir()
	p := testPackager(t, config.MediaConfig{Dir: dir, ArchiveTTL: time.Hour})

	old := filepath.Join(dir, "posts_media_100.zip")
	fresh := filepath.Join(dir, "posts_media_200.zip")
	unrelated := filepath.Join(dir, "keep.txt")
	for _, f := range []string{old, fresh, unrelated} {
		if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(unrelated, stale, stale); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(p)
	if removed := s.SweepOnce(time.Now()); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired archive still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh archive removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated file removed")
	}
}
