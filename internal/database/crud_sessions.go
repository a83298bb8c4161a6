// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/metrics"
	"github.com/tomtom215/rewind/internal/models"
)

const sessionColumns = `id, server_id, user_id, item_id, item_name,
	series_id, series_name, season_id, start_time, end_time,
	play_duration, play_method, position_ticks, runtime_ticks,
	percent_complete, completed, device_name, client_name, created_at`

// SessionsByKeys returns sessions for the given server whose item id is
// in itemIDs. When userIDs is non-empty the result additionally includes
// only sessions for those users or anonymous sessions; anonymous rows
// must be returned because the (item, start) key matches them.
func (db *DB) SessionsByKeys(ctx context.Context, serverID uuid.UUID, itemIDs, userIDs []string) ([]models.PlaybackSession, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	timer := metrics.NewQueryTimer("sessions_by_keys")
	defer timer.ObserveDuration()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + sessionColumns + ` FROM sessions WHERE server_id = ? AND item_id IN (`)
	args := make([]any, 0, len(itemIDs)+len(userIDs)+1)
	args = append(args, serverID.String())
	for i, id := range itemIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, id)
	}
	sb.WriteString(")")

	if len(userIDs) > 0 {
		sb.WriteString(" AND (user_id IS NULL OR user_id IN (")
		for i, id := range userIDs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, id)
		}
		sb.WriteString("))")
	}

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions by keys: %w", err)
	}
	defer closeQuietly(rows)

	var sessions []models.PlaybackSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

// InsertSession inserts a new playback session inside the given
// transaction.
func (db *DB) InsertSession(ctx context.Context, tx *sql.Tx, s *models.PlaybackSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	timer := metrics.NewQueryTimer("insert_session")
	defer timer.ObserveDuration()

	_, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES
		 (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.ServerID.String(), s.UserID, s.ItemID, s.ItemName,
		s.SeriesID, s.SeriesName, s.SeasonID, s.StartTime.UTC(), nullableTime(s.EndTime),
		s.PlayDuration, string(s.PlayMethod), s.PositionTicks, s.RuntimeTicks,
		s.PercentComplete, s.Completed, s.DeviceName, s.ClientName, s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

// UpdateSession overwrites the mutable fields of an existing session
// inside the given transaction. Identity fields (server, item, user,
// start time) never change.
func (db *DB) UpdateSession(ctx context.Context, tx *sql.Tx, s *models.PlaybackSession) error {
	timer := metrics.NewQueryTimer("update_session")
	defer timer.ObserveDuration()

	_, err := tx.ExecContext(ctx,
		`UPDATE sessions SET
			item_name = ?,
			series_id = ?,
			series_name = ?,
			season_id = ?,
			end_time = ?,
			play_duration = ?,
			play_method = ?,
			position_ticks = ?,
			runtime_ticks = ?,
			percent_complete = ?,
			completed = ?,
			device_name = ?,
			client_name = ?
		 WHERE id = ?`,
		s.ItemName, s.SeriesID, s.SeriesName, s.SeasonID,
		nullableTime(s.EndTime), s.PlayDuration, string(s.PlayMethod),
		s.PositionTicks, s.RuntimeTicks, s.PercentComplete, s.Completed,
		s.DeviceName, s.ClientName, s.ID.String())
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	return nil
}

// scanSession reads one session row.
func scanSession(rows *sql.Rows) (*models.PlaybackSession, error) {
	var (
		s                  models.PlaybackSession
		rawID, rawServerID string
		userID             sql.NullString
		seriesID           sql.NullString
		seriesName         sql.NullString
		seasonID           sql.NullString
		itemName           sql.NullString
		endTime            sql.NullTime
		positionTicks      sql.NullInt64
		playMethod         string
		deviceName         sql.NullString
		clientName         sql.NullString
	)
	if err := rows.Scan(&rawID, &rawServerID, &userID, &s.ItemID, &itemName,
		&seriesID, &seriesName, &seasonID, &s.StartTime, &endTime,
		&s.PlayDuration, &playMethod, &positionTicks, &s.RuntimeTicks,
		&s.PercentComplete, &s.Completed, &deviceName, &clientName, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", rawID, err)
	}
	serverID, err := uuid.Parse(rawServerID)
	if err != nil {
		return nil, fmt.Errorf("invalid session server id %q: %w", rawServerID, err)
	}

	s.ID = id
	s.ServerID = serverID
	s.UserID = nullableString(userID)
	s.ItemName = itemName.String
	s.SeriesID = nullableString(seriesID)
	s.SeriesName = nullableString(seriesName)
	s.SeasonID = nullableString(seasonID)
	s.PlayMethod = models.PlayMethod(playMethod)
	s.DeviceName = deviceName.String
	s.ClientName = clientName.String
	s.StartTime = s.StartTime.UTC()
	if endTime.Valid {
		t := endTime.Time.UTC()
		s.EndTime = &t
	}
	if positionTicks.Valid {
		v := positionTicks.Int64
		s.PositionTicks = &v
	}
	return &s, nil
}

// nullableTime converts a *time.Time to a driver-friendly value in UTC.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
