// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

/*
schema.go - Database Schema Management

Tables:
  - servers: registered media-server instances
  - users: canonical users per server, keyed by external id
  - items: canonical catalog items per server, keyed by external id
  - sessions: durable playback sessions (the reconciliation target)

Schema strategy: all columns are defined in the initial CREATE TABLE
statements; no migrations pre-release. The sessions natural-key index
backs the importer's dedup queries.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS servers (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			server_id UUID NOT NULL,
			external_id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (server_id, external_id)
		)`,

		`CREATE TABLE IF NOT EXISTS items (
			server_id UUID NOT NULL,
			external_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			runtime_ticks BIGINT NOT NULL DEFAULT 0,
			series_id TEXT,
			series_name TEXT,
			season_id TEXT,
			PRIMARY KEY (server_id, external_id)
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			server_id UUID NOT NULL,
			user_id TEXT,
			item_id TEXT NOT NULL,
			item_name TEXT,
			series_id TEXT,
			series_name TEXT,
			season_id TEXT,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			play_duration BIGINT NOT NULL DEFAULT 0,
			play_method TEXT NOT NULL,
			position_ticks BIGINT,
			runtime_ticks BIGINT NOT NULL DEFAULT 0,
			percent_complete DOUBLE NOT NULL DEFAULT 0,
			completed BOOLEAN NOT NULL DEFAULT false,
			device_name TEXT,
			client_name TEXT,
			created_at TIMESTAMP NOT NULL
		)`,

		// Natural-key dedup index for the reconciler's existing-session
		// queries. Not UNIQUE: anonymous sessions store NULL user_id and
		// concurrent live-sync writers own the same rows.
		`CREATE INDEX IF NOT EXISTS idx_sessions_natural_key
			ON sessions (server_id, item_id, start_time)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user
			ON sessions (server_id, user_id)`,
	}
}
