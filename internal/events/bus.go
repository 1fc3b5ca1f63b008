// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package events carries session lifecycle events over an in-process
// Watermill pub/sub. Subscribers (the audit router, tests) observe crawl
// starts, completions, cancellations, failures and media packaging without
// coupling to the session controller.
package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Lifecycle topics.
const (
	TopicSessionStarted   = "crawl.session.started"
	TopicSessionCompleted = "crawl.session.completed"
	TopicSessionCancelled = "crawl.session.cancelled"
	TopicSessionFailed    = "crawl.session.failed"
	TopicMediaPackaged    = "media.packaged"
)

// SessionTopics lists every topic the bus publishes, in no particular order.
var SessionTopics = []string{
	TopicSessionStarted,
	TopicSessionCompleted,
	TopicSessionCancelled,
	TopicSessionFailed,
	TopicMediaPackaged,
}

// SessionEvent is the payload on every lifecycle topic. Fields irrelevant to
// a topic stay empty.
type SessionEvent struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	Site      string    `json:"site,omitempty"`
	Board     string    `json:"board,omitempty"`
	Posts     int       `json:"posts,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	Archive   string    `json:"archive,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSessionEvent creates an event with a fresh id and UTC timestamp.
func NewSessionEvent(sessionID string) *SessionEvent {
	return &SessionEvent{
		EventID:   uuid.New().String(),
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}

// Bus is the in-process pub/sub. A closed bus drops further publishes with
// an error, which callers treat as non-fatal.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus builds the bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, newLoggerAdapter()),
	}
}

// Publish serializes the event onto a topic.
func (b *Bus) Publish(topic string, ev *SessionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.pubsub.Publish(topic, msg)
}

// Subscribe returns the message stream for a topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Subscriber exposes the raw subscriber for router wiring.
func (b *Bus) Subscriber() message.Subscriber { return b.pubsub }

// Close shuts the bus down. Pending messages are dropped.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DecodeSessionEvent parses a bus message payload.
func DecodeSessionEvent(msg *message.Message) (*SessionEvent, error) {
	var ev SessionEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
