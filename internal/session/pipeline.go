// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package session

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/trawler/internal/events"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/media"
	"github.com/tomtom215/trawler/internal/metrics"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/translate"
)

const translateTimeout = 10 * time.Second

// Phase progress anchors. The crawl engine owns (collect floor, 75];
// translation and packaging live between 80 and 99.
const (
	progressDetecting   = 5.0
	progressConnecting  = 15.0
	progressFiltering   = 76.0
	progressProcessing  = 78.0
	progressTranslate   = 80.0
	progressTranslated  = 95.0
	progressPackaged    = 99.0
	progressFinalizing  = 99.0
)

// run drives one session end to end: detect, dispatch, translate, package,
// terminal frame.
func (c *Controller) run(ctx context.Context, sess *Session, req models.CrawlRequest, w *frameWriter) {
	start := time.Now()

	w.sendProgress(models.ProgressFrame{
		Step:    models.StepInitializing,
		Details: map[string]interface{}{"crawl_id": sess.ID},
	})

	w.sendProgress(models.ProgressFrame{Progress: progressDetecting, Step: models.StepDetectingSite})
	site := c.detector.Detect(ctx, req.Input)
	board := c.detector.ExtractBoard(req.Input, site)

	logging.Info().
		Str("session_id", sess.ID).
		Str("site", site).
		Str("board", board).
		Msg("crawl session started")
	c.publish(events.TopicSessionStarted, sess.ID, site, board, 0, "", "")

	w.sendProgress(models.ProgressFrame{Progress: progressConnecting, Step: models.StepConnecting, Site: site, Board: board})

	posts, err := c.dispatcher.Dispatch(ctx, site, board, req, func(pf models.ProgressFrame) {
		w.sendProgress(pf)
	})

	if c.finishIfCancelled(ctx, sess, w, site, board, start) {
		return
	}

	if err != nil {
		ce := models.AsCrawlError(err, site)
		w.send("error", models.ErrorFrame{
			ErrorCode:   ce.Code,
			ErrorDetail: localizedReason(ce.Code, req.Language, ce.Detail),
			Site:        ce.Site,
		})
		logging.Warn().
			Str("session_id", sess.ID).
			Str("site", site).
			Str("error_code", ce.Code).
			Str("detail", ce.Detail).
			Msg("crawl session failed")
		c.publish(events.TopicSessionFailed, sess.ID, site, board, 0, ce.Code, "")
		metrics.RecordCrawl(site, "error", time.Since(start))
		return
	}

	w.sendProgress(models.ProgressFrame{Progress: progressFiltering, Step: models.StepFiltering, Site: site, Board: board})
	w.sendProgress(models.ProgressFrame{Progress: progressProcessing, Step: models.StepProcessing, Site: site, Board: board})

	translated := c.translatePhase(ctx, sess, req, posts, w, site, board)
	if c.finishIfCancelled(ctx, sess, w, site, board, start) {
		return
	}

	summary := models.CrawlSummary{
		TotalPosts: len(posts),
		Site:       site,
		Board:      board,
		Translated: translated,
	}

	if req.IncludeMedia && c.packager != nil && len(posts) > 0 {
		archive, files := c.packagePhase(ctx, posts, w, site, board)
		if c.finishIfCancelled(ctx, sess, w, site, board, start) {
			return
		}
		if archive != "" {
			summary.MediaArchive = archive
			summary.MediaFiles = files
			c.publish(events.TopicMediaPackaged, sess.ID, site, board, len(posts), "", archive)
		}
	}

	summary.ElapsedMS = time.Since(start).Milliseconds()

	w.sendProgress(models.ProgressFrame{Progress: progressFinalizing, Step: models.StepFinalizing, Site: site, Board: board})
	w.sendProgress(models.ProgressFrame{Progress: 100, Step: models.StepComplete, Site: site, Board: board})
	w.send("done", models.DoneFrame{
		Done:         true,
		Data:         posts,
		DetectedSite: site,
		Summary:      summary,
	})

	c.publish(events.TopicSessionCompleted, sess.ID, site, board, len(posts), "", "")
	metrics.RecordCrawl(site, "ok", time.Since(start))
}

// finishIfCancelled emits the terminal cancel frame when the session was
// cancelled or its context is gone.
func (c *Controller) finishIfCancelled(ctx context.Context, sess *Session, w *frameWriter, site, board string, start time.Time) bool {
	if !sess.Cancelled() && ctx.Err() == nil {
		return false
	}

	w.send("cancel", models.CancelFrame{Cancelled: true})
	c.publish(events.TopicSessionCancelled, sess.ID, site, board, 0, "", "")
	metrics.RecordCrawl(site, "cancelled", time.Since(start))
	return true
}

// translatePhase fills TitleTranslated per post for the first target
// language; additional languages land in extras under "title_{lang}".
// Failures keep the original title.
func (c *Controller) translatePhase(ctx context.Context, sess *Session, req models.CrawlRequest, posts []models.Post, w *frameWriter, site, board string) bool {
	if req.SkipTranslation || !req.Translate || len(req.TargetLanguages) == 0 {
		return false
	}
	if c.translator == nil || !c.translator.Enabled() {
		logging.Debug().Msg("translation requested but service not configured")
		return false
	}

	translated := false
	span := progressTranslated - progressTranslate

	for i := range posts {
		if sess.Cancelled() || ctx.Err() != nil {
			return translated
		}

		for _, lang := range req.TargetLanguages {
			if !translate.NeedsTranslation(posts[i].TitleOriginal, lang) {
				continue
			}

			tctx, cancel := context.WithTimeout(ctx, translateTimeout)
			out, err := c.translator.Translate(tctx, posts[i].TitleOriginal, lang)
			cancel()
			if err != nil {
				logging.Debug().Str("lang", lang).Err(err).Msg("translation skipped")
				continue
			}

			if posts[i].TitleTranslated == "" {
				posts[i].TitleTranslated = out
			} else {
				posts[i].SetExtra("title_"+lang, out)
			}
			translated = true
		}

		w.sendProgress(models.ProgressFrame{
			Progress: progressTranslate + span*float64(i+1)/float64(len(posts)),
			Step:     models.StepTranslating,
			Site:     site,
			Board:    board,
			Details:  map[string]interface{}{"translated_posts": i + 1, "total_posts": len(posts)},
		})
	}

	return translated
}

// packagePhase builds the media archive, streaming packaging frames. Media
// failures never fail the session.
func (c *Controller) packagePhase(ctx context.Context, posts []models.Post, w *frameWriter, site, board string) (string, int) {
	files := 0
	name, err := c.packager.Package(ctx, posts, func(done, total int) {
		files = total
		w.sendProgress(models.ProgressFrame{
			Progress: progressTranslated + (progressPackaged-progressTranslated)*float64(done)/float64(total),
			Step:     models.StepPackaging,
			Site:     site,
			Board:    board,
			Details: map[string]interface{}{
				"files_done":  done,
				"files_total": total,
				"percent":     100 * done / total,
			},
		})
	})

	switch {
	case errors.Is(err, media.ErrNoMedia):
		return "", 0
	case err != nil:
		logging.Warn().Err(err).Msg("media packaging failed")
		return "", 0
	}

	return name, files
}

// publish emits a lifecycle event; a nil or closed bus drops it.
func (c *Controller) publish(topic, sessionID, site, board string, posts int, errorCode, archive string) {
	if c.bus == nil {
		return
	}

	ev := events.NewSessionEvent(sessionID)
	ev.Site = site
	ev.Board = board
	ev.Posts = posts
	ev.ErrorCode = errorCode
	ev.Archive = archive

	if err := c.bus.Publish(topic, ev); err != nil {
		logging.Debug().Str("topic", topic).Err(err).Msg("lifecycle event dropped")
	}
}
