// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/models"
)

// UsersByServer returns a read-only snapshot of all canonical users for
// the given server. The importer rebuilds this snapshot per chunk rather
// than caching it, so concurrent live-sync updates are observed.
func (db *DB) UsersByServer(ctx context.Context, serverID uuid.UUID) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT external_id, name FROM users WHERE server_id = ?`, serverID.String())
	if err != nil {
		return nil, fmt.Errorf("query users for server %s: %w", serverID, err)
	}
	defer closeQuietly(rows)

	var users []models.User
	for rows.Next() {
		user := models.User{ServerID: serverID}
		if err := rows.Scan(&user.ExternalID, &user.Name); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// ItemsByServer returns a read-only snapshot of all canonical catalog
// items for the given server.
func (db *DB) ItemsByServer(ctx context.Context, serverID uuid.UUID) ([]models.MediaItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT external_id, name, type, runtime_ticks, series_id, series_name, season_id
		 FROM items WHERE server_id = ?`, serverID.String())
	if err != nil {
		return nil, fmt.Errorf("query items for server %s: %w", serverID, err)
	}
	defer closeQuietly(rows)

	var items []models.MediaItem
	for rows.Next() {
		item := models.MediaItem{ServerID: serverID}
		var seriesID, seriesName, seasonID sql.NullString
		if err := rows.Scan(&item.ExternalID, &item.Name, &item.Type,
			&item.RuntimeTicks, &seriesID, &seriesName, &seasonID); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		item.SeriesID = nullableString(seriesID)
		item.SeriesName = nullableString(seriesName)
		item.SeasonID = nullableString(seasonID)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

// UpsertUser inserts or updates a canonical user. Called by the live
// sync path; the importer only reads.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (server_id, external_id, name) VALUES (?, ?, ?)
		 ON CONFLICT (server_id, external_id) DO UPDATE SET name = excluded.name`,
		user.ServerID.String(), user.ExternalID, user.Name)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ExternalID, err)
	}
	return nil
}

// UpsertItem inserts or updates a canonical catalog item. Called by the
// live sync path; the importer only reads.
func (db *DB) UpsertItem(ctx context.Context, item *models.MediaItem) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (server_id, external_id, name, type, runtime_ticks, series_id, series_name, season_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (server_id, external_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			runtime_ticks = excluded.runtime_ticks,
			series_id = excluded.series_id,
			series_name = excluded.series_name,
			season_id = excluded.season_id`,
		item.ServerID.String(), item.ExternalID, item.Name, item.Type,
		item.RuntimeTicks, item.SeriesID, item.SeriesName, item.SeasonID)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ExternalID, err)
	}
	return nil
}

// nullableString converts a sql.NullString to a *string.
func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
