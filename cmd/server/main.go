// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

// Package main is the entry point for the Rewind server.
//
// Rewind archives media-server playback history into a canonical
// DuckDB session store. It accepts Jellyfin Playback Reporting exports
// (JSON or TSV) over HTTP and reconciles them against existing
// sessions, so the same export can be replayed safely.
//
// Startup order:
//
//  1. Configuration: koanf layered load (defaults, config.yaml, env)
//  2. Logging: zerolog, JSON or console
//  3. Database: DuckDB with schema bootstrap
//  4. Import pipeline: executor behind the single-flight gate
//  5. Supervision tree: gate lifecycle and HTTP server under suture
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// listener drains, and a running import stops at its next chunk
// boundary with all completed chunks already durable.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/rewind/internal/api"
	"github.com/tomtom215/rewind/internal/config"
	"github.com/tomtom215/rewind/internal/database"
	"github.com/tomtom215/rewind/internal/importer"
	"github.com/tomtom215/rewind/internal/logging"
	"github.com/tomtom215/rewind/internal/supervisor"
	"github.com/tomtom215/rewind/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("listen_addr", cfg.Server.ListenAddr).
		Str("database", cfg.Database.Path).
		Msg("Starting Rewind")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Database close failed")
		}
	}()

	executor := importer.NewExecutor(db, cfg.Import, cfg.Database.TxTimeout)
	gate := importer.NewGate(executor)

	handler := api.NewHandler(db, gate)
	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           api.NewRouter(handler, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddImportService(services.NewGateService(gate))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("Rewind stopped gracefully")
}
