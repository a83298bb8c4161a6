// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/rewind/internal/config"
)

// NewRouter builds the HTTP routing table. Import submission is rate
// limited per client IP; the gate behind it enforces single-flight
// regardless, so the limiter only shields against request floods.
func NewRouter(handler *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/import", func(r chi.Router) {
			r.With(httprate.LimitByIP(cfg.ImportRequestsPerMinute, time.Minute)).
				Post("/", handler.ImportSubmit)
			r.Get("/status", handler.ImportStatus)
		})
	})

	return r
}
