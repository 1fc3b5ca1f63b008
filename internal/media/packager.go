// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package media

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/metrics"
	"github.com/tomtom215/trawler/internal/models"
)

// ErrNoMedia is returned when a result set carries no downloadable media.
var ErrNoMedia = errors.New("no media urls in result set")

const (
	defaultMaxFileBytes    = 100 << 20
	defaultMaxTotalBytes   = 900 << 20
	defaultPerHost         = 5
	defaultDownloadTimeout = 30 * time.Second
	defaultRetryAttempts   = 3
	retryBaseDelay         = 500 * time.Millisecond

	// perHostRate bounds request frequency per media host on top of the
	// concurrency semaphore.
	perHostRate = rate.Limit(10)
)

// archiveNamePattern is the only shape the download endpoint will serve.
// Anything else (traversal attempts included) is rejected.
var archiveNamePattern = regexp.MustCompile(`^posts_media_\d+\.zip$`)

// Packager downloads media files and assembles ZIP archives in a
// process-local directory.
type Packager struct {
	cfg config.MediaConfig
	hc  *http.Client

	mu       sync.Mutex
	hostSems map[string]chan struct{}
	hostLims map[string]*rate.Limiter
}

// NewPackager builds a packager and ensures the archive directory exists.
func NewPackager(cfg config.MediaConfig) (*Packager, error) {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.MaxTotalBytes <= 0 {
		cfg.MaxTotalBytes = defaultMaxTotalBytes
	}
	if cfg.PerHostConcurrency <= 0 {
		cfg.PerHostConcurrency = defaultPerHost
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = defaultDownloadTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}

	return &Packager{
		cfg:      cfg,
		hc:       &http.Client{Timeout: cfg.DownloadTimeout},
		hostSems: make(map[string]chan struct{}),
		hostLims: make(map[string]*rate.Limiter),
	}, nil
}

// Dir returns the archive directory.
func (p *Packager) Dir() string { return p.cfg.Dir }

// ProgressFunc reports packaging progress as (files done, files total).
type ProgressFunc func(done, total int)

// Package downloads every valid media URL in the result set and writes one
// ZIP archive. It returns the archive file name (not path). Individual
// download failures skip the file; only a result set with no media at all or
// a ZIP assembly failure is an error.
func (p *Packager) Package(ctx context.Context, posts []models.Post, progress ProgressFunc) (string, error) {
	urls := CandidateURLs(posts)
	if len(urls) == 0 {
		return "", ErrNoMedia
	}

	staging, err := os.MkdirTemp(p.cfg.Dir, "staging-")
	if err != nil {
		return "", fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	names := newNameSet()

	var (
		wg         sync.WaitGroup
		totalMu    sync.Mutex
		totalBytes int64
		done       int
		staged     = make([]string, len(urls))
	)

	report := func() {
		totalMu.Lock()
		done++
		d := done
		totalMu.Unlock()
		if progress != nil {
			progress(d, len(urls))
		}
	}

	for i, raw := range urls {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			defer report()

			totalMu.Lock()
			full := totalBytes >= p.cfg.MaxTotalBytes
			totalMu.Unlock()
			if full {
				metrics.MediaDownloads.WithLabelValues("skipped").Inc()
				return
			}

			name := names.claim(sanitizeFilename(raw, i))
			dest := filepath.Join(staging, name)

			size, err := p.download(ctx, raw, dest)
			if err != nil {
				logging.Warn().Str("url", raw).Err(err).Msg("media download skipped")
				return
			}

			totalMu.Lock()
			totalBytes += size
			totalMu.Unlock()
			staged[i] = name
			metrics.MediaDownloads.WithLabelValues("ok").Inc()
		}(i, raw)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	archiveName := fmt.Sprintf("posts_media_%d.zip", time.Now().Unix())
	size, err := p.assemble(staging, staged, archiveName)
	if err != nil {
		return "", err
	}

	metrics.MediaArchiveBytes.Set(float64(size))
	return archiveName, nil
}

// download fetches one URL into dest with retries and the per-file size cap.
// Returns the bytes written.
func (p *Packager) download(ctx context.Context, raw, dest string) (int64, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, err
	}

	host := u.Hostname()
	sem, lim := p.hostGates(host)

	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	var lastErr error
	for attempt := 0; attempt < p.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBaseDelay << (attempt - 1)):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		if err := lim.Wait(ctx); err != nil {
			return 0, err
		}

		size, err := p.fetchOnce(ctx, raw, dest)
		if err == nil {
			return size, nil
		}
		lastErr = err

		// Oversize files never shrink on retry.
		if errors.Is(err, errOversize) {
			metrics.MediaDownloads.WithLabelValues("oversize").Inc()
			return 0, err
		}
	}

	metrics.MediaDownloads.WithLabelValues("failed").Inc()
	return 0, lastErr
}

var errOversize = errors.New("file exceeds per-file size cap")

func (p *Packager) fetchOnce(ctx context.Context, raw, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("media host returned %d", resp.StatusCode)
	}
	if resp.ContentLength > p.cfg.MaxFileBytes {
		return 0, errOversize
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(f, io.LimitReader(resp.Body, p.cfg.MaxFileBytes+1))
	closeErr := f.Close()

	switch {
	case err != nil:
		os.Remove(dest)
		return 0, err
	case closeErr != nil:
		os.Remove(dest)
		return 0, closeErr
	case written > p.cfg.MaxFileBytes:
		os.Remove(dest)
		return 0, errOversize
	}

	return written, nil
}

// assemble zips the staged files in input order. Media payloads are already
// compressed, so entries are stored rather than deflated.
func (p *Packager) assemble(staging string, staged []string, archiveName string) (int64, error) {
	out, err := os.Create(filepath.Join(p.cfg.Dir, archiveName))
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, name := range staged {
		if name == "" {
			continue
		}

		src, err := os.Open(filepath.Join(staging, name))
		if err != nil {
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err == nil {
			_, err = io.Copy(w, src)
		}
		src.Close()
		if err != nil {
			zw.Close()
			out.Close()
			return 0, fmt.Errorf("writing archive entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return 0, fmt.Errorf("finalizing archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	info, err := os.Stat(filepath.Join(p.cfg.Dir, archiveName))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ArchivePath validates an archive name from the download endpoint and
// returns its absolute path. Names outside the generated pattern are
// rejected, which also blocks path traversal.
func (p *Packager) ArchivePath(name string) (string, error) {
	if !archiveNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid archive name %q", name)
	}

	full := filepath.Join(p.cfg.Dir, name)
	if _, err := os.Stat(full); err != nil {
		return "", err
	}
	return full, nil
}

// hostGates returns the semaphore and rate limiter for a host, creating them
// on first use.
func (p *Packager) hostGates(host string) (chan struct{}, *rate.Limiter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sem, ok := p.hostSems[host]
	if !ok {
		sem = make(chan struct{}, p.cfg.PerHostConcurrency)
		p.hostSems[host] = sem
	}
	lim, ok := p.hostLims[host]
	if !ok {
		lim = rate.NewLimiter(perHostRate, p.cfg.PerHostConcurrency)
		p.hostLims[host] = lim
	}
	return sem, lim
}

// nameSet hands out collision-free archive entry names.
type nameSet struct {
	mu   sync.Mutex
	used map[string]bool
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]bool)}
}

func (s *nameSet) claim(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.used[name] {
		s.used[name] = true
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := base + "_" + strconv.Itoa(i) + ext
		if !s.used[candidate] {
			s.used[candidate] = true
			return candidate
		}
	}
}

// invalidFilenameChars are stripped from URL-derived names.
var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]+`)

// underscoreRuns collapses repeated underscores left by sanitization.
var underscoreRuns = regexp.MustCompile(`_{2,}`)

// sanitizeFilename derives an archive entry name from a media URL. When the
// URL path yields nothing usable, the name falls back to an index + hash
// form that is always valid.
func sanitizeFilename(raw string, index int) string {
	fallback := func(ext string) string {
		sum := sha256.Sum256([]byte(raw))
		if ext == "" {
			ext = ".bin"
		}
		return fmt.Sprintf("media_%d_%s%s", index, hex.EncodeToString(sum[:4]), ext)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fallback("")
	}

	name := path.Base(u.Path)
	ext := strings.ToLower(path.Ext(name))
	if name == "." || name == "/" || name == "" {
		return fallback(ext)
	}

	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_ ")

	if name == "" || strings.EqualFold(name, ext) || len(name) > 120 {
		return fallback(ext)
	}
	return name
}
