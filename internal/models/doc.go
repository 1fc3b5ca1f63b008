// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package models defines the shared data shapes of Trawler: the canonical
// Post record emitted by every site adapter, the crawl request/options
// carried from the WebSocket handshake through the dispatcher, the frame
// types streamed back to the client, and the wire-level error taxonomy.
//
// Everything here is plain data. Behavior lives in the packages that
// produce or consume these types (filter, crawl, dispatch, session).
package models
