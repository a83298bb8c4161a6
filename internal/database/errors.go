// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package database

import (
	"context"
	"errors"
	"strings"
)

// ErrServerNotFound is returned when a target server id is not registered.
var ErrServerNotFound = errors.New("server not found")

// IsTransient reports whether an error belongs to the retryable storage
// class: connection loss, timeouts, and DuckDB transaction conflicts.
// The importer retries whole chunks on this class only.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection") ||
		strings.Contains(errMsg, "database is closed") ||
		strings.Contains(errMsg, "transaction conflict") ||
		strings.Contains(errMsg, "conflict on update") ||
		strings.Contains(errMsg, "timeout")
}

// IsUniqueConstraint reports whether an error is a unique constraint
// violation. DuckDB constraint error messages contain "UNIQUE constraint"
// or "Duplicate key".
func IsUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "duplicate key")
}
