// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package models

import "testing"

func TestNormalizePlayMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  PlayMethod
	}{
		{"DirectPlay", PlayMethodDirectPlay},
		{"DirectStream", PlayMethodDirectStream},
		{"Transcode", PlayMethodTranscode},
		{"Transcode (v:h264 a:aac)", PlayMethodTranscode},
		{"TranscodeHW", PlayMethodTranscode},
		{"", PlayMethodUnknown},
		// Unrecognized non-empty values pass through unchanged.
		{"RemuxOnly", PlayMethod("RemuxOnly")},
	}

	for _, tt := range tests {
		if got := NormalizePlayMethod(tt.input); got != tt.want {
			t.Errorf("NormalizePlayMethod(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAnonymous(t *testing.T) {
	t.Parallel()

	empty := ""
	user := "abc123"

	tests := []struct {
		name   string
		userID *string
		want   bool
	}{
		{"nil user", nil, true},
		{"empty user", &empty, true},
		{"named user", &user, false},
	}

	for _, tt := range tests {
		s := &PlaybackSession{UserID: tt.userID}
		if got := s.Anonymous(); got != tt.want {
			t.Errorf("%s: Anonymous() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
