// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rewind/internal/logging"
	"github.com/tomtom215/rewind/internal/metrics"
)

// tsvFieldCount is the exact number of tab-separated fields per line:
// date, user id, item id, item type, item name, playback method,
// client name, device name, play duration.
const tsvFieldCount = 9

// Decode turns a raw payload and a declared format into activity
// records. It never fails hard: malformed input degrades to an empty or
// partial record sequence plus a count of dropped rows.
func Decode(payload []byte, format Format) ([]ActivityRecord, int64) {
	switch format {
	case FormatJSON:
		return decodeJSON(payload)
	case FormatTSV:
		return decodeTSV(payload)
	default:
		logging.Warn().Str("format", string(format)).Msg("Unrecognized import format")
		return nil, 0
	}
}

// jsonActivity mirrors the Playback Reporting export object. Field
// values arrive as strings or numbers depending on plugin version, so
// every field is a lenient scalar.
type jsonActivity struct {
	DateCreated    lenientString `json:"DateCreated"`
	UserID         lenientString `json:"UserId"`
	ItemID         lenientString `json:"ItemId"`
	ItemType       lenientString `json:"ItemType"`
	ItemName       lenientString `json:"ItemName"`
	PlaybackMethod lenientString `json:"PlaybackMethod"`
	ClientName     lenientString `json:"ClientName"`
	DeviceName     lenientString `json:"DeviceName"`
	PlayDuration   lenientString `json:"PlayDuration"`
}

// lenientString accepts a JSON string, number, bool, or null and stores
// its textual form.
type lenientString string

// UnmarshalJSON implements json.Unmarshaler.
func (l *lenientString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*l = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = lenientString(s)
		return nil
	}
	// Numbers and bools keep their literal text.
	*l = lenientString(data)
	return nil
}

// decodeJSON decodes a JSON array of activity objects. The payload may
// be double-encoded (a JSON string containing the array); both forms
// are accepted. An unparseable blob yields an empty sequence counted as
// one drop.
func decodeJSON(payload []byte) ([]ActivityRecord, int64) {
	var rows []jsonActivity
	if err := json.Unmarshal(payload, &rows); err != nil {
		var blob string
		if inner := json.Unmarshal(payload, &blob); inner != nil ||
			json.Unmarshal([]byte(blob), &rows) != nil {
			logging.Warn().Err(err).Msg("Import payload is not a JSON activity array")
			metrics.DecodeDropsTotal.Inc()
			return nil, 1
		}
	}

	records := make([]ActivityRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ActivityRecord{
			Date:           string(row.DateCreated),
			UserID:         string(row.UserID),
			ItemID:         string(row.ItemID),
			ItemType:       string(row.ItemType),
			ItemName:       string(row.ItemName),
			PlaybackMethod: string(row.PlaybackMethod),
			ClientName:     string(row.ClientName),
			DeviceName:     string(row.DeviceName),
			PlayDuration:   string(row.PlayDuration),
		})
	}
	return records, 0
}

// decodeTSV decodes tab-separated text. Lines are split on CR/LF; each
// line must have exactly nine tab-separated fields or it is dropped
// with a warning, never failing the batch.
func decodeTSV(payload []byte) ([]ActivityRecord, int64) {
	lines := strings.FieldsFunc(string(payload), func(r rune) bool {
		return r == '\r' || r == '\n'
	})

	var (
		records []ActivityRecord
		dropped int64
	)
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) != tsvFieldCount {
			dropped++
			metrics.DecodeDropsTotal.Inc()
			logging.Warn().
				Int("fields", len(fields)).
				Int("expected", tsvFieldCount).
				Msg("Dropping malformed TSV line")
			continue
		}
		records = append(records, ActivityRecord{
			Date:           fields[0],
			UserID:         fields[1],
			ItemID:         fields[2],
			ItemType:       fields[3],
			ItemName:       fields[4],
			PlaybackMethod: fields[5],
			ClientName:     fields[6],
			DeviceName:     fields[7],
			PlayDuration:   fields[8],
		})
	}
	return records, dropped
}
