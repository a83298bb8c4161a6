// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/rewind/internal/models"
)

// CatalogReader is the read-only slice of the store the resolver needs.
type CatalogReader interface {
	UsersByServer(ctx context.Context, serverID uuid.UUID) ([]models.User, error)
	ItemsByServer(ctx context.Context, serverID uuid.UUID) ([]models.MediaItem, error)
}

// LookupIndex maps external user/item identifiers to canonical records.
// An index is a snapshot: it is rebuilt once per chunk from the current
// store rather than cached, trading redundant reads for correctness
// against concurrent catalog updates.
type LookupIndex struct {
	users map[string]*models.User
	items map[string]*models.MediaItem

	// itemsFolded is the case-insensitive fallback index, keyed by
	// lower-cased external id. Some export tools change identifier
	// casing in transit.
	itemsFolded map[string]*models.MediaItem
}

// BuildIndex queries the current user and item snapshots for the server
// and builds the lookup tables.
func BuildIndex(ctx context.Context, store CatalogReader, serverID uuid.UUID) (*LookupIndex, error) {
	users, err := store.UsersByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("load user snapshot: %w", err)
	}
	items, err := store.ItemsByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("load item snapshot: %w", err)
	}

	idx := &LookupIndex{
		users:       make(map[string]*models.User, len(users)),
		items:       make(map[string]*models.MediaItem, len(items)),
		itemsFolded: make(map[string]*models.MediaItem, len(items)),
	}
	for i := range users {
		idx.users[users[i].ExternalID] = &users[i]
	}
	for i := range items {
		item := &items[i]
		idx.items[item.ExternalID] = item
		folded := strings.ToLower(item.ExternalID)
		// First writer wins on folded collisions so the exact index
		// stays authoritative for its own casing.
		if _, exists := idx.itemsFolded[folded]; !exists {
			idx.itemsFolded[folded] = item
		}
	}
	return idx, nil
}

// User returns the canonical user for an external id, or nil. An empty
// id is a legitimate anonymous session, not an error. User lookup is
// exact-match only.
func (idx *LookupIndex) User(externalID string) *models.User {
	if externalID == "" {
		return nil
	}
	return idx.users[externalID]
}

// Item returns the canonical item for an external id, or nil when the
// catalog lacks it (removed items are legitimate). Exact match is
// attempted first, then the case-folded fallback.
func (idx *LookupIndex) Item(externalID string) *models.MediaItem {
	if externalID == "" {
		return nil
	}
	if item, ok := idx.items[externalID]; ok {
		return item
	}
	return idx.itemsFolded[strings.ToLower(externalID)]
}
