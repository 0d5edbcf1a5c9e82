// Package store persists document snapshots between editing sessions.
package store

import (
	"context"
	"errors"

	"mapsync/server/internal/editor/state"
)

// ErrNotFound is returned when no document exists for a room. Documents
// are seeded out of band; sessions never create them.
var ErrNotFound = errors.New("store: document not found")

// Store loads and saves document snapshots keyed by room.
type Store interface {
	Load(ctx context.Context, room string) (state.DocumentSnapshot, error)
	Save(ctx context.Context, room string, snapshot state.DocumentSnapshot) error
}
