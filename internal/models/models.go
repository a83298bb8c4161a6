// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

// Package models defines the canonical types shared by the importer, the
// live sync path, and the session store: media servers, users, catalog
// items, and playback sessions.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicksPerSecond is the catalog's fine-grained time unit. Runtime and
// position fields are stored in ticks.
const TicksPerSecond int64 = 10_000

// CompletedThreshold is the completion percentage above which a session
// counts as watched. Strictly exclusive: exactly 90% is not completed.
const CompletedThreshold = 90.0

// ItemTypeEpisode is the catalog type tag for episodic content. Only
// episodes carry series/season references.
const ItemTypeEpisode = "Episode"

// Server is a media-server instance that sessions belong to.
type Server struct {
	ID        uuid.UUID
	Name      string
	URL       string
	CreatedAt time.Time
}

// User is a canonical media-server user, keyed by server and the
// server's own external user identifier.
type User struct {
	ServerID   uuid.UUID
	ExternalID string
	Name       string
}

// MediaItem is a canonical catalog entry. Series fields are populated
// only for episodic content.
type MediaItem struct {
	ServerID     uuid.UUID
	ExternalID   string
	Name         string
	Type         string
	RuntimeTicks int64
	SeriesID     *string
	SeriesName   *string
	SeasonID     *string
}

// PlayMethod describes how content was delivered to the client.
// DirectPlay, DirectStream and Transcode are the well-known values;
// other non-empty strings from upstream pass through unchanged.
type PlayMethod string

const (
	PlayMethodDirectPlay   PlayMethod = "DirectPlay"
	PlayMethodDirectStream PlayMethod = "DirectStream"
	PlayMethodTranscode    PlayMethod = "Transcode"
	PlayMethodUnknown      PlayMethod = "Unknown"
)

// NormalizePlayMethod maps a raw upstream playback method string to a
// PlayMethod. Any value beginning with "Transcode" (which upstream
// suffixes with codec detail) collapses to Transcode; an empty value
// becomes Unknown; everything else passes through unchanged.
func NormalizePlayMethod(raw string) PlayMethod {
	switch {
	case raw == "":
		return PlayMethodUnknown
	case strings.HasPrefix(raw, string(PlayMethodTranscode)):
		return PlayMethodTranscode
	default:
		return PlayMethod(raw)
	}
}

// PlaybackSession is the durable, deduplicated playback record. Rows are
// owned jointly by the importer and the live sync path; neither may
// assume exclusive ownership.
type PlaybackSession struct {
	ID       uuid.UUID
	ServerID uuid.UUID

	// UserID is the external user id. Nil means an anonymous session.
	UserID *string

	// ItemID is the external catalog item id.
	ItemID   string
	ItemName string

	// Series references, populated only for episodic content.
	SeriesID   *string
	SeriesName *string
	SeasonID   *string

	StartTime time.Time
	EndTime   *time.Time

	// PlayDuration is seconds actually played.
	PlayDuration int64

	PlayMethod PlayMethod

	// PositionTicks is the last known playback position. The history
	// import feed never carries it; live write paths do.
	PositionTicks *int64

	// RuntimeTicks is the catalog runtime of the item at session time.
	RuntimeTicks int64

	// PercentComplete is PlayDuration relative to RuntimeTicks, 0 when
	// the runtime is unknown. May exceed 100 for replayed content.
	PercentComplete float64

	// Completed is true when PercentComplete strictly exceeds
	// CompletedThreshold.
	Completed bool

	DeviceName string
	ClientName string

	CreatedAt time.Time
}

// Anonymous reports whether the session has no resolved user.
func (s *PlaybackSession) Anonymous() bool {
	return s.UserID == nil || *s.UserID == ""
}
