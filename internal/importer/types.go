// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"time"

	"github.com/google/uuid"
)

// Format identifies the upstream export encoding.
type Format string

const (
	// FormatJSON is a JSON array of activity objects.
	FormatJSON Format = "json"

	// FormatTSV is tab-separated text, nine fields per line.
	FormatTSV Format = "tsv"
)

// ActivityRecord is one row of the upstream activity log, as decoded.
// All fields hold the raw upstream text; coercion (dates, durations)
// happens during reconciliation so that a bad value fails exactly one
// record. Records are ephemeral and never persisted directly.
type ActivityRecord struct {
	Date           string
	UserID         string
	ItemID         string
	ItemType       string
	ItemName       string
	PlaybackMethod string
	ClientName     string
	DeviceName     string
	PlayDuration   string
}

// BatchOutcome counts terminal per-record outcomes. Outcomes combine
// additively across chunks.
type BatchOutcome struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
	Skipped int64 `json:"skipped"`
	Errored int64 `json:"errors"`
}

// Add combines another outcome into this one.
func (o *BatchOutcome) Add(other BatchOutcome) {
	o.Created += other.Created
	o.Updated += other.Updated
	o.Skipped += other.Skipped
	o.Errored += other.Errored
}

// Total returns the number of records accounted for.
func (o BatchOutcome) Total() int64 {
	return o.Created + o.Updated + o.Skipped + o.Errored
}

// ImportStats holds the full result of one import run.
type ImportStats struct {
	BatchOutcome

	// ServerID is the target media server.
	ServerID uuid.UUID

	// Format is the declared payload encoding.
	Format Format

	// TotalRecords is the input row count, including decoder drops.
	TotalRecords int64

	// DecodeDropped is the number of input rows the decoder discarded.
	DecodeDropped int64

	// StartTime is when the import started.
	StartTime time.Time

	// EndTime is when the import completed (zero while running).
	EndTime time.Time

	// Err holds a fatal setup error message, empty otherwise.
	Err string
}

// Duration returns the elapsed time of the import run.
func (s *ImportStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RecordsPerSecond returns the processing rate.
func (s *ImportStats) RecordsPerSecond() float64 {
	seconds := s.Duration().Seconds()
	if seconds == 0 {
		return 0
	}
	return float64(s.Total()) / seconds
}

// Summary is the JSON shape reported by the status endpoint.
type Summary struct {
	ServerID         string    `json:"server_id"`
	Format           string    `json:"format"`
	TotalRecords     int64     `json:"total_records"`
	DecodeDropped    int64     `json:"decode_dropped"`
	Created          int64     `json:"created"`
	Updated          int64     `json:"updated"`
	Skipped          int64     `json:"skipped"`
	Errors           int64     `json:"errors"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
	RecordsPerSecond float64   `json:"records_per_second"`
	StartTime        time.Time `json:"start_time"`
	Error            string    `json:"error,omitempty"`
}

// ToSummary converts ImportStats to the reporting shape.
func (s *ImportStats) ToSummary() *Summary {
	return &Summary{
		ServerID:         s.ServerID.String(),
		Format:           string(s.Format),
		TotalRecords:     s.TotalRecords,
		DecodeDropped:    s.DecodeDropped,
		Created:          s.Created,
		Updated:          s.Updated,
		Skipped:          s.Skipped,
		Errors:           s.Errored,
		ElapsedSeconds:   s.Duration().Seconds(),
		RecordsPerSecond: s.RecordsPerSecond(),
		StartTime:        s.StartTime,
		Error:            s.Err,
	}
}
