// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/trawler/internal/logging"
)

// Router consumes every lifecycle topic and writes one structured audit line
// per event. It runs as a supervised service.
type Router struct {
	router *message.Router
}

// NewRouter wires an audit handler onto every session topic of the bus.
func NewRouter(bus *Bus) (*Router, error) {
	r, err := message.NewRouter(message.RouterConfig{}, newLoggerAdapter())
	if err != nil {
		return nil, err
	}

	for _, topic := range SessionTopics {
		topic := topic
		r.AddNoPublisherHandler(
			"audit-"+topic,
			topic,
			bus.Subscriber(),
			func(msg *message.Message) error {
				ev, err := DecodeSessionEvent(msg)
				if err != nil {
					logging.Warn().Str("topic", topic).Err(err).Msg("undecodable lifecycle event")
					return nil
				}
				logging.Info().
					Str("topic", topic).
					Str("session_id", ev.SessionID).
					Str("site", ev.Site).
					Str("board", ev.Board).
					Int("posts", ev.Posts).
					Str("error_code", ev.ErrorCode).
					Str("archive", ev.Archive).
					Msg("session lifecycle event")
				return nil
			},
		)
	}

	return &Router{router: r}, nil
}

// String names the service in supervisor logs.
func (r *Router) String() string { return "event-router" }

// Serve runs the router until the context is cancelled.
func (r *Router) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}
