// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/config"
	"github.com/tomtom215/rewind/internal/database"
	"github.com/tomtom215/rewind/internal/importer"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := newMemStore(uuid.New())
	cfg := config.ImportConfig{BatchSize: 50, MaxRetries: 1, RetryBaseDelay: time.Millisecond}
	h := NewHandler(db, importer.NewGate(importer.NewExecutor(store, cfg, time.Minute)))
	router := testRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Status != "ok" {
		t.Errorf("status = %q, want ok", envelope.Status)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	t.Parallel()

	h := testHandler(newMemStore(uuid.New()))
	router := testRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body empty")
	}
}
