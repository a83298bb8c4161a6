// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/logging"
	"github.com/tomtom215/rewind/internal/models"
)

// Decision is the reconciler's verdict for one activity record.
type Decision int

const (
	// DecisionCreate means no existing session matches the composite key.
	DecisionCreate Decision = iota

	// DecisionUpdate means an existing session matches and the incoming
	// record improves on it.
	DecisionUpdate

	// DecisionSkip means an existing session matches and remains
	// authoritative.
	DecisionSkip
)

// ReconcileResult carries the decision, the session to persist (for
// create/update) or the authoritative existing session (for skip), and
// the composite key the record resolved to.
type ReconcileResult struct {
	Decision Decision
	Session  *models.PlaybackSession
	Key      string
}

// episodePattern splits "<series> - sNNeNN - <episode>" item names.
var episodePattern = regexp.MustCompile(`(?i)^(.+?) - s(\d+)e(\d+) - (.+)$`)

// Reconciler is the per-record decision engine for one import run.
type Reconciler struct {
	serverID uuid.UUID
}

// NewReconciler creates a reconciler for the given target server.
func NewReconciler(serverID uuid.UUID) *Reconciler {
	return &Reconciler{serverID: serverID}
}

// Reconcile computes derived fields for one activity record, matches it
// against the existing sessions discovered for this chunk, and decides
// create, update, or skip. It returns an error only for a record whose
// date cannot be normalized; the caller counts that record as errored.
func (r *Reconciler) Reconcile(rec *ActivityRecord, idx *LookupIndex, existing map[string]*models.PlaybackSession) (*ReconcileResult, error) {
	if user := idx.User(rec.UserID); user == nil && rec.UserID != "" {
		// Not fatal: the canonical user table may lag behind history.
		logging.Debug().Str("user_id", rec.UserID).Msg("Activity user not in canonical table")
	}

	start, ok := ParseDate(rec.Date)
	if !ok {
		return nil, fmt.Errorf("unparseable activity date %q", rec.Date)
	}

	duration := coerceDuration(rec.PlayDuration)
	item := idx.Item(rec.ItemID)

	session := &models.PlaybackSession{
		ID:           deterministicSessionID(r.serverID, rec.ItemID, rec.UserID, start),
		ServerID:     r.serverID,
		ItemID:       rec.ItemID,
		ItemName:     rec.ItemName,
		StartTime:    start,
		PlayDuration: duration,
		PlayMethod:   models.NormalizePlayMethod(rec.PlaybackMethod),
		DeviceName:   rec.DeviceName,
		ClientName:   rec.ClientName,
	}
	if rec.UserID != "" {
		userID := rec.UserID
		session.UserID = &userID
	}

	r.deriveSeriesFields(session, rec, item)

	if item != nil && item.RuntimeTicks > 0 {
		session.RuntimeTicks = item.RuntimeTicks
		session.PercentComplete = float64(duration*models.TicksPerSecond) / float64(item.RuntimeTicks) * 100
		session.Completed = session.PercentComplete > models.CompletedThreshold
	}

	if duration > 0 {
		end := start.Add(time.Duration(duration) * time.Second)
		session.EndTime = &end
	}

	key := CompositeKey(rec.ItemID, rec.UserID, start)

	prior, found := existing[key]
	if !found {
		return &ReconcileResult{Decision: DecisionCreate, Session: session, Key: key}, nil
	}
	if shouldUpdateSession(prior, session) {
		merged := *session
		merged.ID = prior.ID
		merged.CreatedAt = prior.CreatedAt
		return &ReconcileResult{Decision: DecisionUpdate, Session: &merged, Key: key}, nil
	}
	return &ReconcileResult{Decision: DecisionSkip, Session: prior, Key: key}, nil
}

// deriveSeriesFields populates series/episode naming for episodic
// content. When the raw item name matches the plugin's
// "<series> - sNNeNN - <episode>" convention, the series and episode
// names come from the match; otherwise the series name falls back to
// the resolved item's known series and the display name stays raw.
// Non-episode types never populate series fields.
func (r *Reconciler) deriveSeriesFields(session *models.PlaybackSession, rec *ActivityRecord, item *models.MediaItem) {
	if rec.ItemType != models.ItemTypeEpisode {
		return
	}
	if m := episodePattern.FindStringSubmatch(rec.ItemName); m != nil {
		series := m[1]
		session.SeriesName = &series
		session.ItemName = m[4]
	} else if item != nil && item.SeriesName != nil {
		session.SeriesName = item.SeriesName
	}
	if item != nil {
		session.SeriesID = item.SeriesID
		session.SeasonID = item.SeasonID
	}
}

// shouldUpdateSession reports whether the incoming session improves on
// the existing one: strictly longer play duration, a further playback
// position, or an end time the existing row lacks. The position branch
// never fires for history imports (the feed carries no position data)
// but other write paths populate it.
func shouldUpdateSession(existing, incoming *models.PlaybackSession) bool {
	if incoming.PlayDuration > existing.PlayDuration {
		return true
	}
	if incoming.PositionTicks != nil &&
		(existing.PositionTicks == nil || *incoming.PositionTicks > *existing.PositionTicks) {
		return true
	}
	if existing.EndTime == nil && incoming.EndTime != nil {
		return true
	}
	return false
}

// CompositeKey builds the natural dedup key for a session: item id,
// user id (omitted entirely for anonymous sessions), start time.
func CompositeKey(itemID, userID string, start time.Time) string {
	ts := strconv.FormatInt(start.UTC().Unix(), 10)
	if userID == "" {
		return itemID + "\x1f" + ts
	}
	return itemID + "\x1f" + userID + "\x1f" + ts
}

// SessionKey builds the composite key for a stored session.
func SessionKey(s *models.PlaybackSession) string {
	if s.Anonymous() {
		return CompositeKey(s.ItemID, "", s.StartTime)
	}
	return CompositeKey(s.ItemID, *s.UserID, s.StartTime)
}

// coerceDuration converts the raw play duration to non-negative
// seconds. Non-numeric or absent input becomes 0.
func coerceDuration(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0
		}
		v = int64(f)
	}
	if v < 0 {
		return 0
	}
	return v
}

// deterministicSessionID derives a stable UUID from the session's
// natural key so re-importing the same record always produces the same
// row id.
func deterministicSessionID(serverID uuid.UUID, itemID, userID string, start time.Time) uuid.UUID {
	input := fmt.Sprintf("playback-import:%s:%s:%s:%d", serverID, itemID, userID, start.UTC().Unix())
	hash := sha256.Sum256([]byte(input))

	id, err := uuid.FromBytes(hash[:16])
	if err != nil {
		// Cannot happen with 16 bytes of input.
		return uuid.New()
	}
	id[6] = (id[6] & 0x0f) | 0x50 // Version 5
	id[8] = (id[8] & 0x3f) | 0x80 // Variant 10
	return id
}
