// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"strings"
	"testing"
)

func TestDecodeTSV(t *testing.T) {
	t.Parallel()

	payload := strings.Join([]string{
		"2024-01-15 10:30:00.1234567\tuser-1\titem-1\tEpisode\tShow - s01e02 - Pilot\tDirectPlay\tJellyfin Web\tChrome\t1800",
		"2024-01-16 20:00:00\t\titem-2\tMovie\tSome Movie\tTranscode (v:h264 a:aac)\tJellyfin Media Player\tLiving Room\t5400",
	}, "\n")

	records, dropped := Decode([]byte(payload), FormatTSV)
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	first := records[0]
	if first.Date != "2024-01-15 10:30:00.1234567" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.UserID != "user-1" || first.ItemID != "item-1" {
		t.Errorf("identity fields = %q/%q", first.UserID, first.ItemID)
	}
	if first.ItemName != "Show - s01e02 - Pilot" {
		t.Errorf("ItemName = %q", first.ItemName)
	}
	if first.PlayDuration != "1800" {
		t.Errorf("PlayDuration = %q", first.PlayDuration)
	}

	if records[1].UserID != "" {
		t.Errorf("anonymous UserID = %q, want empty", records[1].UserID)
	}
}

func TestDecodeTSVDropsMalformedLines(t *testing.T) {
	t.Parallel()

	payload := strings.Join([]string{
		"2024-01-15 10:30:00\tuser-1\titem-1\tMovie\tGood\tDirectPlay\tWeb\tChrome\t60",
		"only\tthree\tfields",
		"", // blank lines vanish in line splitting, not counted
		"2024-01-16 10:30:00\tuser-1\titem-2\tMovie\tAlso Good\tDirectPlay\tWeb\tChrome\t60",
	}, "\r\n")

	records, dropped := Decode([]byte(payload), FormatTSV)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	payload := `[
		{"DateCreated":"2024-01-15 10:30:00","UserId":"u1","ItemId":"i1","ItemType":"Movie","ItemName":"A Movie","PlaybackMethod":"DirectPlay","ClientName":"Web","DeviceName":"Chrome","PlayDuration":3600},
		{"DateCreated":"2024-01-16 10:30:00","UserId":null,"ItemId":"i2","ItemType":"Movie","ItemName":"Another","PlaybackMethod":"Transcode","ClientName":"Web","DeviceName":"Chrome","PlayDuration":"120"}
	]`

	records, dropped := Decode([]byte(payload), FormatJSON)
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].PlayDuration != "3600" {
		t.Errorf("numeric PlayDuration = %q, want 3600", records[0].PlayDuration)
	}
	if records[1].UserID != "" {
		t.Errorf("null UserId = %q, want empty", records[1].UserID)
	}
	if records[1].PlayDuration != "120" {
		t.Errorf("string PlayDuration = %q, want 120", records[1].PlayDuration)
	}
}

func TestDecodeJSONDoubleEncoded(t *testing.T) {
	t.Parallel()

	payload := `"[{\"DateCreated\":\"2024-01-15 10:30:00\",\"UserId\":\"u1\",\"ItemId\":\"i1\",\"ItemType\":\"Movie\",\"ItemName\":\"A Movie\",\"PlaybackMethod\":\"DirectPlay\",\"ClientName\":\"Web\",\"DeviceName\":\"Chrome\",\"PlayDuration\":60}]"`

	records, dropped := Decode([]byte(payload), FormatJSON)
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(records) != 1 || records[0].ItemID != "i1" {
		t.Fatalf("records = %+v, want one record for i1", records)
	}
}

func TestDecodeJSONGarbage(t *testing.T) {
	t.Parallel()

	records, dropped := Decode([]byte("not json at all"), FormatJSON)
	if records != nil {
		t.Errorf("records = %+v, want nil", records)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	t.Parallel()

	records, dropped := Decode([]byte("anything"), Format("xml"))
	if records != nil || dropped != 0 {
		t.Errorf("got (%+v, %d), want (nil, 0)", records, dropped)
	}
}
