// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

// Package importer ingests Playback Reporting plugin exports (JSON or
// tab-separated text) and reconciles them into the canonical session
// store.
//
// # Pipeline
//
//	Admission gate (single-flight, process-wide)
//	       ↓
//	Format decoder (json/tsv → []ActivityRecord)
//	       ↓
//	Identity resolver (per-chunk user/item lookup snapshots)
//	       ↓
//	Session reconciler (create / update / skip per record)
//	       ↓
//	Batch executor (per-chunk transactions, bounded retry)
//
// # Deduplication
//
// Incoming activity is matched against existing sessions by the
// composite natural key (item id, user id or absence, start time). An
// existing session is only overwritten when the incoming record is
// strictly better: longer play duration, a further playback position,
// or an end time the stored row lacks. Re-importing the same export is
// therefore idempotent.
//
// # Failure model
//
// Malformed payload rows are dropped during decoding. A record with an
// unparseable date is counted as errored and skipped. Transient storage
// errors retry the whole chunk with exponential backoff; after the
// final attempt the chunk's records count as errored and the import
// continues with the next chunk. The target server being unknown is the
// only fatal error.
//
// The session store is shared with live sync writers. Lookup state is
// re-queried fresh for every chunk and no long-held locks are taken, so
// the importer converges under concurrent catalog updates.
package importer
