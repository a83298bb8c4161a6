// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/logging"
	"github.com/tomtom215/rewind/internal/metrics"
)

// ErrImportInProgress is returned by Submit when an import is already
// running anywhere in the process.
var ErrImportInProgress = errors.New("an import is already in progress")

// Gate serializes imports process-wide. At most one import runs at a
// time; concurrent submissions are rejected immediately rather than
// queued. The busy flag is released on every exit path, including
// worker panics, so a crashed import never wedges the gate shut.
type Gate struct {
	executor *Executor

	mu      sync.Mutex
	running bool
	active  uuid.UUID
	last    *ImportStats

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewGate creates a gate around the given executor. Imports run under
// context.Background until Bind installs a lifecycle context.
func NewGate(executor *Executor) *Gate {
	return &Gate{executor: executor, baseCtx: context.Background()}
}

// Bind derives the context all subsequent imports run under. Cancelling
// the parent stops the active import between chunks.
func (g *Gate) Bind(parent context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.baseCtx, g.cancel = context.WithCancel(parent)
}

// Submit admits an import for the target server and runs it in the
// background. It returns immediately: ErrImportInProgress when another
// import holds the gate, nil when the import was started.
func (g *Gate) Submit(serverID uuid.UUID, payload []byte, format Format) error {
	if !g.tryAcquire(serverID) {
		metrics.GateRejectionsTotal.Inc()
		logging.Warn().
			Str("server_id", serverID.String()).
			Msg("Import rejected, another import is in progress")
		return ErrImportInProgress
	}

	g.wg.Add(1)
	go g.runImport(serverID, payload, format)
	return nil
}

func (g *Gate) tryAcquire(serverID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	g.active = serverID
	return true
}

func (g *Gate) release(stats *ImportStats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
	g.active = uuid.Nil
	g.last = stats
}

// runImport decodes the payload and drives the executor, recording the
// result as the gate's last-import status.
func (g *Gate) runImport(serverID uuid.UUID, payload []byte, format Format) {
	defer g.wg.Done()

	g.mu.Lock()
	ctx := g.baseCtx
	g.mu.Unlock()

	stats := &ImportStats{
		ServerID:  serverID,
		Format:    format,
		StartTime: time.Now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Str("server_id", serverID.String()).
				Msg("Import worker panicked")
			stats.Err = "internal error during import"
		}
		stats.EndTime = time.Now().UTC()
		metrics.ImportDuration.Observe(stats.Duration().Seconds())
		g.release(stats)
	}()

	records, dropped := Decode(payload, format)
	stats.TotalRecords = int64(len(records)) + dropped
	stats.DecodeDropped = dropped

	logging.Info().
		Str("server_id", serverID.String()).
		Str("format", string(format)).
		Int("records", len(records)).
		Int64("decode_dropped", dropped).
		Msg("Import started")

	outcome, err := g.executor.Run(ctx, serverID, records)
	stats.BatchOutcome = outcome
	if err != nil {
		stats.Err = err.Error()
		logging.Error().Err(err).
			Str("server_id", serverID.String()).
			Msg("Import aborted")
		return
	}

	logging.Info().
		Str("server_id", serverID.String()).
		Int64("created", outcome.Created).
		Int64("updated", outcome.Updated).
		Int64("skipped", outcome.Skipped).
		Int64("errors", outcome.Errored).
		Dur("duration", stats.Duration()).
		Msg("Import completed")
}

// IsRunning reports whether an import currently holds the gate.
func (g *Gate) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Status returns the current gate state: whether an import is running,
// which server it targets, and the stats of the last finished import
// (nil if none has run yet).
func (g *Gate) Status() (running bool, active uuid.UUID, last *ImportStats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running, g.active, g.last
}

// Shutdown cancels the lifecycle context (stopping any active import
// between chunks) and waits for the worker to drain.
func (g *Gate) Shutdown() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	g.wg.Wait()
}
