// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/importer"
	"github.com/tomtom215/rewind/internal/logging"
)

// maxImportPayload caps the request body. Playback Reporting exports of
// multi-year libraries stay well under this.
const maxImportPayload = 256 << 20 // 256 MiB

// importRequest is the submission body for POST /api/v1/import.
type importRequest struct {
	ServerID string `json:"server_id" validate:"required,uuid"`
	Format   string `json:"format" validate:"required,oneof=json tsv"`
	Data     string `json:"data" validate:"required"`
}

// ImportSubmit accepts an activity export and starts the import in the
// background. Responses: 202 accepted, 409 when another import is
// running, 400 for malformed submissions.
func (h *Handler) ImportSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportPayload+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "READ_FAILED", "could not read request body")
		return
	}
	if len(body) > maxImportPayload {
		respondError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "import payload exceeds the size limit")
		return
	}

	var req importRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	serverID, err := uuid.Parse(req.ServerID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SERVER_ID", "server_id is not a valid UUID")
		return
	}

	if err := h.gate.Submit(serverID, []byte(req.Data), importer.Format(req.Format)); err != nil {
		if errors.Is(err, importer.ErrImportInProgress) {
			respondError(w, http.StatusConflict, "IMPORT_IN_PROGRESS", "an import is already in progress")
			return
		}
		logging.Error().Err(err).Msg("Import submission failed")
		respondError(w, http.StatusInternalServerError, "IMPORT_FAILED", "could not start import")
		return
	}

	respondJSON(w, http.StatusAccepted, &apiResponse{
		Status: "accepted",
		Data: map[string]any{
			"server_id": serverID.String(),
			"format":    req.Format,
		},
	})
}

// importStatus is the response body for GET /api/v1/import/status.
type importStatus struct {
	Running      bool              `json:"running"`
	ActiveServer string            `json:"active_server,omitempty"`
	LastImport   *importer.Summary `json:"last_import,omitempty"`
}

// ImportStatus reports whether an import is running and the result of
// the last finished one.
func (h *Handler) ImportStatus(w http.ResponseWriter, _ *http.Request) {
	running, active, last := h.gate.Status()

	status := importStatus{Running: running}
	if running {
		status.ActiveServer = active.String()
	}
	if last != nil {
		status.LastImport = last.ToSummary()
	}

	respondJSON(w, http.StatusOK, &apiResponse{Status: "ok", Data: status})
}
