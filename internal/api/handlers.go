// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

// Package api provides the HTTP surface of Rewind: import submission
// and status, health, and Prometheus metrics.
package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rewind/internal/database"
	"github.com/tomtom215/rewind/internal/importer"
	"github.com/tomtom215/rewind/internal/logging"
)

// Handler carries the dependencies for all API endpoints.
type Handler struct {
	db        *database.DB
	gate      *importer.Gate
	validate  *validator.Validate
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(db *database.DB, gate *importer.Gate) *Handler {
	return &Handler{
		db:        db,
		gate:      gate,
		validate:  validator.New(),
		startTime: time.Now(),
	}
}

// apiResponse is the envelope for all JSON responses.
type apiResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *apiError `json:"error,omitempty"`
}

// apiError carries a machine-readable code and a human message.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *apiResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &apiResponse{
		Status: "error",
		Error:  &apiError{Code: code, Message: message},
	})
}

// Health reports liveness and storage readiness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		logging.Error().Err(err).Msg("Health check failed")
		respondError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage is not reachable")
		return
	}
	respondJSON(w, http.StatusOK, &apiResponse{
		Status: "ok",
		Data: map[string]any{
			"uptime_seconds": time.Since(h.startTime).Seconds(),
		},
	})
}
