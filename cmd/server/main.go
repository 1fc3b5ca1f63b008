// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

// Package main is the entry point for the Trawler server.
//
// Trawler aggregates community posts from multiple sources (Reddit, Lemmy,
// DCInside, Blind, 4chan, BBC, X and arbitrary sites via the universal
// adapter) over a WebSocket crawl channel with progress streaming, optional
// translation and media packaging.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (env > YAML > defaults)
//  2. Fetch client: shared rate-limited HTTP client with circuit breakers
//  3. Board resolver: DCInside gallery and Blind topic lookup tables
//  4. Site detector: URL/keyword classification with Lemmy instance probing
//  5. Adapters: one per supported site, registered with the dispatcher
//  6. Translation client and media packager (both optional)
//  7. Event bus: in-process pub/sub for session lifecycle events
//  8. Supervisor tree: pipeline layer (event router, media sweeper, session
//     sweep) and API layer (HTTP server)
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests drain within the
// configured timeout, and live crawl sessions are cancelled.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tomtom215/trawler/internal/api"
	"github.com/tomtom215/trawler/internal/boards"
	"github.com/tomtom215/trawler/internal/config"
	"github.com/tomtom215/trawler/internal/detect"
	"github.com/tomtom215/trawler/internal/dispatch"
	"github.com/tomtom215/trawler/internal/events"
	"github.com/tomtom215/trawler/internal/fetch"
	"github.com/tomtom215/trawler/internal/logging"
	"github.com/tomtom215/trawler/internal/media"
	"github.com/tomtom215/trawler/internal/session"
	"github.com/tomtom215/trawler/internal/sites"
	"github.com/tomtom215/trawler/internal/supervisor"
	"github.com/tomtom215/trawler/internal/translate"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Default logger: config (and with it the logging config) is not
		// available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Bool("reddit_api", cfg.Reddit.Enabled()).
		Bool("translation", cfg.Translate.Enabled()).
		Msg("Starting Trawler")

	fetchClient := fetch.NewClient(cfg.Crawl)
	resolver := boards.NewResolver(cfg.Boards.Dir)

	prober, err := detect.NewLemmyProber(fetchClient, cfg.Crawl)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create Lemmy prober")
	}
	detector := detect.NewDetector(prober)

	dispatcher := dispatch.NewDispatcher(cfg.Crawl)
	registerAdapters(dispatcher, fetchClient, resolver, cfg)

	translator := translate.NewClient(cfg.Translate)
	if !translator.Enabled() {
		logging.Info().Msg("Translation disabled (TRANSLATE_API_KEY not set)")
	}

	mediaCfg := cfg.Media
	if mediaCfg.Dir == "" {
		mediaCfg.Dir = filepath.Join(os.TempDir(), "trawler-media")
	}
	packager, err := media.NewPackager(mediaCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize media packager")
	}
	logging.Info().Str("dir", packager.Dir()).Msg("Media packager initialized")

	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	eventRouter, err := events.NewRouter(bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event router")
	}

	controller := session.NewController(*cfg, detector, dispatcher, translator, packager, bus)
	handler := api.NewHandler(controller, resolver, packager)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(*cfg, handler, controller),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddPipelineService(eventRouter)
	tree.AddPipelineService(media.NewSweeper(packager))
	tree.AddPipelineService(controller)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// registerAdapters wires every site adapter into the dispatcher. Reddit is
// skipped without API credentials; every other adapter is always available.
func registerAdapters(d *dispatch.Dispatcher, client *fetch.Client, resolver *boards.Resolver, cfg *config.Config) {
	d.Register(sites.NewUniversal(client))
	d.Register(sites.NewLemmy(client))
	d.Register(sites.NewFourChan(client))
	d.Register(sites.NewBBC(client))
	d.Register(sites.NewX(client))
	d.Register(sites.NewDCInside(client, resolver))
	d.Register(sites.NewBlind(client, resolver))

	if cfg.Reddit.Enabled() {
		d.Register(sites.NewReddit(client, cfg.Reddit))
		logging.Info().Msg("Reddit API adapter enabled")
	} else {
		logging.Info().Msg("Reddit adapter disabled (REDDIT_CLIENT_ID/SECRET not set)")
	}
}
