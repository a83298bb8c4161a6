// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/config"
	"github.com/tomtom215/rewind/internal/database"
	"github.com/tomtom215/rewind/internal/importer"
	"github.com/tomtom215/rewind/internal/models"
)

// memStore is a minimal importer.Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	serverID uuid.UUID
	sessions map[string]models.PlaybackSession

	// blockTx, when non-nil, parks transactions until closed.
	blockTx chan struct{}
}

func newMemStore(serverID uuid.UUID) *memStore {
	return &memStore{serverID: serverID, sessions: make(map[string]models.PlaybackSession)}
}

func (m *memStore) GetServer(_ context.Context, id uuid.UUID) (*models.Server, error) {
	if id != m.serverID {
		return nil, fmt.Errorf("server %s: %w", id, database.ErrServerNotFound)
	}
	return &models.Server{ID: id}, nil
}

func (m *memStore) UsersByServer(_ context.Context, _ uuid.UUID) ([]models.User, error) {
	return nil, nil
}

func (m *memStore) ItemsByServer(_ context.Context, _ uuid.UUID) ([]models.MediaItem, error) {
	return nil, nil
}

func (m *memStore) SessionsByKeys(_ context.Context, _ uuid.UUID, _, _ []string) ([]models.PlaybackSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PlaybackSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) WithTx(ctx context.Context, _ time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if m.blockTx != nil {
		<-m.blockTx
	}
	return fn(ctx, nil)
}

func (m *memStore) InsertSession(_ context.Context, _ *sql.Tx, s *models.PlaybackSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID.String()] = *s
	return nil
}

func (m *memStore) UpdateSession(_ context.Context, _ *sql.Tx, s *models.PlaybackSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID.String()] = *s
	return nil
}

func testHandler(store importer.Store) *Handler {
	cfg := config.ImportConfig{BatchSize: 50, MaxRetries: 1, RetryBaseDelay: time.Millisecond}
	gate := importer.NewGate(importer.NewExecutor(store, cfg, time.Minute))
	return NewHandler(nil, gate)
}

func testRouter(h *Handler) http.Handler {
	return NewRouter(h, config.ServerConfig{ImportRequestsPerMinute: 100})
}

func submitBody(serverID uuid.UUID, format, data string) string {
	body, _ := json.Marshal(map[string]string{
		"server_id": serverID.String(),
		"format":    format,
		"data":      data,
	})
	return string(body)
}

func waitForIdleGate(t *testing.T, h *Handler, router http.Handler) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/import/status", nil))
		var envelope struct {
			Data struct {
				Running bool `json:"running"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("status response: %v", err)
		}
		if !envelope.Data.Running {
			return
		}
		select {
		case <-deadline:
			t.Fatal("import still running after 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestImportSubmitAccepted(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	h := testHandler(newMemStore(serverID))
	router := testRouter(h)

	data := "2024-01-15 10:30:00\tuser-1\titem-1\tMovie\tA Movie\tDirectPlay\tWeb\tChrome\t60\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(submitBody(serverID, "tsv", data)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	waitForIdleGate(t, h, router)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/import/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			LastImport *importer.Summary `json:"last_import"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if envelope.Data.LastImport == nil {
		t.Fatal("last_import missing after completed run")
	}
	if envelope.Data.LastImport.Created != 1 {
		t.Errorf("created = %d, want 1", envelope.Data.LastImport.Created)
	}
}

func TestImportSubmitConflictWhileRunning(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	store := newMemStore(serverID)
	store.blockTx = make(chan struct{})
	h := testHandler(store)
	router := testRouter(h)

	data := "2024-01-15 10:30:00\tuser-1\titem-1\tMovie\tA Movie\tDirectPlay\tWeb\tChrome\t60\n"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(submitBody(serverID, "tsv", data))))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first submit = %d, want 202", rec.Code)
	}

	// The worker is parked inside its first transaction; a second
	// submission must bounce.
	deadline := time.After(2 * time.Second)
	for {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(submitBody(serverID, "tsv", data))))
		if rec.Code == http.StatusConflict {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("never saw 409, last status %d", rec.Code)
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(store.blockTx)
	waitForIdleGate(t, h, router)
}

func TestImportSubmitValidation(t *testing.T) {
	t.Parallel()

	h := testHandler(newMemStore(uuid.New()))
	router := testRouter(h)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{{{", http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"bad format", submitBody(uuid.New(), "xml", "x"), http.StatusBadRequest},
		{"bad server id", `{"server_id":"nope","format":"tsv","data":"x"}`, http.StatusBadRequest},
		{"empty data", submitBody(uuid.New(), "tsv", ""), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestImportStatusBeforeAnyImport(t *testing.T) {
	t.Parallel()

	h := testHandler(newMemStore(uuid.New()))
	router := testRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/import/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var envelope struct {
		Data importStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Running || envelope.Data.LastImport != nil {
		t.Errorf("fresh gate status = %+v, want idle and empty", envelope.Data)
	}
}
