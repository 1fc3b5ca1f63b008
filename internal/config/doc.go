// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package config loads and validates the Trawler configuration using
// Koanf v2 with layered sources (defaults, optional YAML file, environment
// variables). Recognized environment variables include APP_ENV, PORT,
// LOG_LEVEL, ALLOWED_ORIGINS, REDDIT_CLIENT_ID/SECRET/USER_AGENT and
// TRANSLATE_API_KEY; see envTransformFunc for the full mapping.
package config
