// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

// Package metrics provides Prometheus instrumentation for the import
// pipeline and the session store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRecordsTotal counts reconciled records by terminal outcome:
	// created, updated, skipped, errored.
	ImportRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_import_records_total",
			Help: "Total activity records processed by reconciliation outcome",
		},
		[]string{"outcome"},
	)

	// ImportChunkRetries counts chunk-level retries on transient storage errors.
	ImportChunkRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rewind_import_chunk_retries_total",
			Help: "Total chunk retries caused by transient storage errors",
		},
	)

	// ImportChunkDuration tracks wall time per committed chunk.
	ImportChunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rewind_import_chunk_duration_seconds",
			Help:    "Duration of per-chunk import transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ImportDuration tracks wall time per whole import run.
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rewind_import_duration_seconds",
			Help:    "Duration of complete import runs in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 7200},
		},
	)

	// DecodeDropsTotal counts input rows dropped during format decoding.
	DecodeDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rewind_import_decode_drops_total",
			Help: "Total malformed input rows dropped by the format decoder",
		},
	)

	// GateRejectionsTotal counts import submissions rejected because an
	// import was already running.
	GateRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rewind_import_gate_rejections_total",
			Help: "Total import submissions rejected by the single-flight gate",
		},
	)

	// DBQueryDuration tracks store query latency by operation.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rewind_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// NewQueryTimer starts a timer observing DBQueryDuration for the given
// operation label.
//
//	timer := metrics.NewQueryTimer("insert_session")
//	defer timer.ObserveDuration()
func NewQueryTimer(operation string) *prometheus.Timer {
	return prometheus.NewTimer(DBQueryDuration.WithLabelValues(operation))
}

// RecordOutcome increments ImportRecordsTotal for the given outcome label.
func RecordOutcome(outcome string, n int64) {
	if n > 0 {
		ImportRecordsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}
