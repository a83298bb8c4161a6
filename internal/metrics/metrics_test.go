// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter.
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestRecordOutcome(t *testing.T) {
	counter, err := ImportRecordsTotal.GetMetricWithLabelValues("created")
	if err != nil {
		t.Fatalf("failed to get counter: %v", err)
	}
	before := getCounterValue(counter)

	RecordOutcome("created", 5)

	if got := getCounterValue(counter); got != before+5 {
		t.Errorf("expected counter to increase by 5, got %v -> %v", before, got)
	}
}

func TestRecordOutcomeIgnoresZero(t *testing.T) {
	counter, err := ImportRecordsTotal.GetMetricWithLabelValues("skipped")
	if err != nil {
		t.Fatalf("failed to get counter: %v", err)
	}
	before := getCounterValue(counter)

	RecordOutcome("skipped", 0)

	if got := getCounterValue(counter); got != before {
		t.Errorf("expected counter unchanged for zero count, got %v -> %v", before, got)
	}
}

func TestNewQueryTimerObserves(t *testing.T) {
	timer := NewQueryTimer("test_op")
	if d := timer.ObserveDuration(); d < 0 {
		t.Errorf("expected non-negative duration, got %v", d)
	}
}
