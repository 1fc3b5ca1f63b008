// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package session owns the WebSocket crawl sessions: handshake, the single
// config frame, the frame stream back to the client, mid-flight cancellation
// and the translation/packaging phases around the crawl itself.
package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/detect"
	"github.com/tomtom215/trawler/internal/dispatch"
	"github.com/tomtom215/trawler/internal/events"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/media"
	"github.com/tomtom215/trawler/internal/metrics"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/translate"
)

const (
	configReadTimeout = 30 * time.Second
	frameWriteTimeout = 10 * time.Second
	frameBuffer       = 64

	// sessionMaxAge bounds how long a session may stay registered before the
	// sweeper cancels it.
	sessionMaxAge = 30 * time.Minute
	sweepInterval = time.Minute
)

// Session is the per-connection state tracked by the controller.
type Session struct {
	ID        string
	created   time.Time
	cancelled atomic.Bool
	cancel    context.CancelFunc
}

// Cancelled reports whether the session was cancelled out-of-band.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// Controller runs the WebSocket sessions and the cancellation registry. It
// also serves as a supervised service sweeping stale sessions.
type Controller struct {
	cfg        config.Config
	detector   *detect.Detector
	dispatcher *dispatch.Dispatcher
	translator *translate.Client
	packager   *media.Packager
	bus        *events.Bus
	upgrader   websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewController wires the session controller. The packager and bus may be
// nil; the affected phases are skipped.
func NewController(
	cfg config.Config,
	detector *detect.Detector,
	dispatcher *dispatch.Dispatcher,
	translator *translate.Client,
	packager *media.Packager,
	bus *events.Bus,
) *Controller {
	c := &Controller{
		cfg:        cfg,
		detector:   detector,
		dispatcher: dispatcher,
		translator: translator,
		packager:   packager,
		bus:        bus,
		sessions:   make(map[string]*Session),
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     c.checkOrigin,
	}
	return c
}

// checkOrigin enforces the origin allow-list in production. Development
// accepts any origin.
func (c *Controller) checkOrigin(r *http.Request) bool {
	if !c.cfg.Server.IsProduction() {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	for _, allowed := range c.cfg.Security.AllowedOrigins {
		if strings.EqualFold(u.Host, allowed) || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return strings.EqualFold(u.Host, r.Host)
}

// HandleWS is the /api/ws endpoint.
func (c *Controller) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade rejected")
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(configReadTimeout))
	var req models.CrawlRequest
	if err := conn.ReadJSON(&req); err != nil {
		frame := models.ErrorFrame{
			ErrorCode:   models.ErrCodeInvalidParameters,
			ErrorDetail: "config frame missing or malformed",
		}
		_ = conn.SetWriteDeadline(time.Now().Add(frameWriteTimeout))
		_ = conn.WriteJSON(frame)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := &Session{
		ID:      uuid.New().String(),
		created: time.Now(),
		cancel:  cancel,
	}
	c.register(sess)
	defer c.unregister(sess.ID)

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	// A client that drops the connection cancels its session.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	writer := newFrameWriter(conn)
	c.run(ctx, sess, req, writer)
}

// Cancel flips a session's cancellation flag. Unknown ids still acknowledge
// success: the session may have finished a moment ago and the client outcome
// is the same.
func (c *Controller) Cancel(id string) models.CancelResponse {
	c.mu.RLock()
	sess, ok := c.sessions[id]
	c.mu.RUnlock()

	if ok {
		sess.cancelled.Store(true)
		sess.cancel()
		metrics.SessionsCancelled.Inc()
		logging.Info().Str("session_id", id).Msg("session cancelled by client")
	}

	return models.CancelResponse{
		Success:   true,
		CrawlID:   id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ActiveCount returns the number of registered sessions.
func (c *Controller) ActiveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *Controller) register(s *Session) {
	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()
}

func (c *Controller) unregister(id string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// String names the service in supervisor logs.
func (c *Controller) String() string { return "session-controller" }

// Serve sweeps stale sessions until the context is cancelled. Sessions
// normally unregister themselves; the sweep catches leaked ones.
func (c *Controller) Serve(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweepStale(time.Now())
		}
	}
}

func (c *Controller) sweepStale(now time.Time) {
	cutoff := now.Add(-sessionMaxAge)

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, sess := range c.sessions {
		if sess.created.Before(cutoff) {
			sess.cancel()
			delete(c.sessions, id)
			logging.Warn().Str("session_id", id).Msg("stale session swept")
		}
	}
}

// frameWriter serializes frames onto the connection and enforces monotonic
// progress.
type frameWriter struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	lastProgress float64
	closed       bool
}

func newFrameWriter(conn *websocket.Conn) *frameWriter {
	return &frameWriter{conn: conn}
}

// send writes one frame. The first write error closes the writer; later
// frames are dropped silently since the session is already dead.
func (w *frameWriter) send(frameType string, frame interface{}) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(frameWriteTimeout))
	if err := w.conn.WriteJSON(frame); err != nil {
		w.closed = true
		logging.Debug().Err(err).Msg("session frame write failed")
		return false
	}

	metrics.SessionFramesSent.WithLabelValues(frameType).Inc()
	return true
}

// sendProgress clamps to [0,100] and never regresses.
func (w *frameWriter) sendProgress(frame models.ProgressFrame) bool {
	w.mu.Lock()
	if frame.Progress < w.lastProgress {
		frame.Progress = w.lastProgress
	}
	if frame.Progress > 100 {
		frame.Progress = 100
	}
	w.lastProgress = frame.Progress
	w.mu.Unlock()

	return w.send("progress", frame)
}
