// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rewind/internal/config"
	"github.com/tomtom215/rewind/internal/database"
	"github.com/tomtom215/rewind/internal/logging"
	"github.com/tomtom215/rewind/internal/metrics"
	"github.com/tomtom215/rewind/internal/models"
)

// Store is the persistence interface the import pipeline requires.
// *database.DB satisfies it; tests substitute fakes.
type Store interface {
	GetServer(ctx context.Context, id uuid.UUID) (*models.Server, error)
	UsersByServer(ctx context.Context, serverID uuid.UUID) ([]models.User, error)
	ItemsByServer(ctx context.Context, serverID uuid.UUID) ([]models.MediaItem, error)
	SessionsByKeys(ctx context.Context, serverID uuid.UUID, itemIDs, userIDs []string) ([]models.PlaybackSession, error)
	WithTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error
	InsertSession(ctx context.Context, tx *sql.Tx, s *models.PlaybackSession) error
	UpdateSession(ctx context.Context, tx *sql.Tx, s *models.PlaybackSession) error
}

// Executor partitions an activity sequence into fixed-size chunks and
// persists each chunk in its own bounded transaction, retrying on
// transient storage errors. Chunks are processed sequentially, in input
// order; no state is shared between chunks except the aggregate counts.
type Executor struct {
	store     Store
	cfg       config.ImportConfig
	txTimeout time.Duration
	limiter   *rate.Limiter
}

// NewExecutor creates an executor with the given import settings.
func NewExecutor(store Store, cfg config.ImportConfig, txTimeout time.Duration) *Executor {
	e := &Executor{store: store, cfg: cfg, txTimeout: txTimeout}
	if cfg.RecordsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RecordsPerSecond), cfg.BatchSize)
	}
	return e
}

// Run processes the full activity sequence against the target server
// and returns the aggregate outcome. The only error returns are the
// fatal setup class (unknown server) and context cancellation between
// chunks; everything else degrades to per-record or per-chunk errored
// counts.
func (e *Executor) Run(ctx context.Context, serverID uuid.UUID, records []ActivityRecord) (BatchOutcome, error) {
	var total BatchOutcome

	if _, err := e.store.GetServer(ctx, serverID); err != nil {
		return total, fmt.Errorf("resolve target server: %w", err)
	}

	reconciler := NewReconciler(serverID)

	for offset := 0; offset < len(records); offset += e.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			// Shutdown between chunks; completed work is already durable.
			return total, err
		}

		end := offset + e.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[offset:end]

		if e.limiter != nil {
			if err := e.limiter.WaitN(ctx, len(chunk)); err != nil {
				return total, err
			}
		}

		outcome, err := e.runChunkWithRetry(ctx, serverID, reconciler, chunk)
		if err != nil {
			// Retries exhausted or non-retryable chunk failure: count
			// the whole chunk as errored and keep going.
			logging.Error().Err(err).
				Int("chunk_start", offset).
				Int("chunk_size", len(chunk)).
				Msg("Chunk failed after retries, counting records as errored")
			outcome = BatchOutcome{Errored: int64(len(chunk))}
		}
		total.Add(outcome)

		metrics.RecordOutcome("created", outcome.Created)
		metrics.RecordOutcome("updated", outcome.Updated)
		metrics.RecordOutcome("skipped", outcome.Skipped)
		metrics.RecordOutcome("errored", outcome.Errored)
	}

	return total, nil
}

// runChunkWithRetry executes one chunk, retrying on the transient
// storage error class with exponential backoff (base delay doubling per
// attempt). Non-transient chunk failures are permanent.
func (e *Executor) runChunkWithRetry(ctx context.Context, serverID uuid.UUID, reconciler *Reconciler, chunk []ActivityRecord) (BatchOutcome, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = e.cfg.RetryBaseDelay
	expBackoff.RandomizationFactor = 0
	expBackoff.Multiplier = 2
	expBackoff.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(e.cfg.MaxRetries)), ctx)

	var outcome BatchOutcome
	err := backoff.RetryNotify(func() error {
		out, err := e.runChunk(ctx, serverID, reconciler, chunk)
		if err != nil {
			if database.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		outcome = out
		return nil
	}, policy, func(err error, delay time.Duration) {
		metrics.ImportChunkRetries.Inc()
		logging.Warn().Err(err).Dur("retry_in", delay).Msg("Transient storage error, retrying chunk")
	})
	if err != nil {
		return BatchOutcome{}, err
	}
	return outcome, nil
}

// runChunk rebuilds lookup state and processes every record of the
// chunk inside one bounded transaction. Per-record failures are counted
// without aborting the chunk; only the transient storage class
// propagates, rolling back the transaction so the retry starts clean.
func (e *Executor) runChunk(ctx context.Context, serverID uuid.UUID, reconciler *Reconciler, chunk []ActivityRecord) (BatchOutcome, error) {
	timer := time.Now()

	// Fresh snapshots per chunk: concurrent live-sync writers may have
	// changed the catalog or created sessions since the last chunk.
	idx, err := BuildIndex(ctx, e.store, serverID)
	if err != nil {
		return BatchOutcome{}, fmt.Errorf("build lookup index: %w", err)
	}

	existing, err := e.loadExistingSessions(ctx, serverID, chunk)
	if err != nil {
		return BatchOutcome{}, fmt.Errorf("load existing sessions: %w", err)
	}

	var outcome BatchOutcome
	err = e.store.WithTx(ctx, e.txTimeout, func(txCtx context.Context, tx *sql.Tx) error {
		for i := range chunk {
			decision, recErr := e.processRecord(txCtx, tx, reconciler, &chunk[i], idx, existing)
			if recErr != nil {
				if database.IsTransient(recErr) {
					return recErr
				}
				outcome.Errored++
				logging.Warn().Err(recErr).
					Str("item_id", chunk[i].ItemID).
					Str("date", chunk[i].Date).
					Msg("Record failed, skipping")
				continue
			}
			switch decision {
			case DecisionCreate:
				outcome.Created++
			case DecisionUpdate:
				outcome.Updated++
			case DecisionSkip:
				outcome.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return BatchOutcome{}, err
	}

	metrics.ImportChunkDuration.Observe(time.Since(timer).Seconds())
	return outcome, nil
}

// processRecord reconciles and persists a single record. A panic while
// processing one corrupt record is confined here and surfaces as that
// record's error.
func (e *Executor) processRecord(ctx context.Context, tx *sql.Tx, reconciler *Reconciler, rec *ActivityRecord, idx *LookupIndex, existing map[string]*models.PlaybackSession) (decision Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing record: %v", r)
		}
	}()

	result, err := reconciler.Reconcile(rec, idx, existing)
	if err != nil {
		return 0, err
	}

	switch result.Decision {
	case DecisionCreate:
		if err := e.store.InsertSession(ctx, tx, result.Session); err != nil {
			if database.IsUniqueConstraint(err) {
				// A concurrent writer beat us to the row; it is
				// authoritative.
				return DecisionSkip, nil
			}
			return 0, err
		}
	case DecisionUpdate:
		if err := e.store.UpdateSession(ctx, tx, result.Session); err != nil {
			return 0, err
		}
	case DecisionSkip:
		return DecisionSkip, nil
	}

	// Later records in this chunk dedup against what we just wrote.
	existing[result.Key] = result.Session
	return result.Decision, nil
}

// loadExistingSessions queries sessions matching the chunk's item-id
// set (and user-id set when any records carry users) and maps them by
// composite key.
func (e *Executor) loadExistingSessions(ctx context.Context, serverID uuid.UUID, chunk []ActivityRecord) (map[string]*models.PlaybackSession, error) {
	itemSet := make(map[string]struct{})
	userSet := make(map[string]struct{})
	for i := range chunk {
		if chunk[i].ItemID != "" {
			itemSet[chunk[i].ItemID] = struct{}{}
		}
		if chunk[i].UserID != "" {
			userSet[chunk[i].UserID] = struct{}{}
		}
	}

	itemIDs := make([]string, 0, len(itemSet))
	for id := range itemSet {
		itemIDs = append(itemIDs, id)
	}
	userIDs := make([]string, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}

	sessions, err := e.store.SessionsByKeys(ctx, serverID, itemIDs, userIDs)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]*models.PlaybackSession, len(sessions))
	for i := range sessions {
		existing[SessionKey(&sessions[i])] = &sessions[i]
	}
	return existing, nil
}
