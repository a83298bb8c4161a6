// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/models"
)

// GetServer returns the server with the given id, or ErrServerNotFound.
func (db *DB) GetServer(ctx context.Context, id uuid.UUID) (*models.Server, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, url, created_at FROM servers WHERE id = ?`, id.String())

	var (
		server models.Server
		rawID  string
		url    sql.NullString
	)
	if err := row.Scan(&rawID, &server.Name, &url, &server.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrServerNotFound, id)
		}
		return nil, fmt.Errorf("query server %s: %w", id, err)
	}

	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid server id %q: %w", rawID, err)
	}
	server.ID = parsed
	server.URL = url.String
	return &server, nil
}

// UpsertServer inserts or updates a server registration.
func (db *DB) UpsertServer(ctx context.Context, server *models.Server) error {
	if server.ID == uuid.Nil {
		server.ID = uuid.New()
	}
	if server.CreatedAt.IsZero() {
		server.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO servers (id, name, url, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, url = excluded.url`,
		server.ID.String(), server.Name, server.URL, server.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert server %s: %w", server.ID, err)
	}
	return nil
}
