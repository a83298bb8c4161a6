// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("chunk write: %w", context.DeadlineExceeded), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"bad connection", errors.New("driver: bad connection"), true},
		{"database closed", errors.New("sql: database is closed"), true},
		{"write conflict", errors.New("write conflict on update"), true},
		{"transaction conflict", errors.New("transaction conflict: concurrent append"), true},
		{"timeout", errors.New("query timeout exceeded"), true},
		{"constraint violation", errors.New("duplicate key violates unique constraint"), false},
		{"syntax error", errors.New("parser error: syntax error at or near"), false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUniqueConstraint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unique constraint", errors.New(`Duplicate key "i1" violates unique constraint`), true},
		{"duplicate key", errors.New("duplicate key value"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsUniqueConstraint(tt.err); got != tt.want {
				t.Errorf("IsUniqueConstraint(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
