package storage

import (
	"context"

	"mapsync/server/logging"
)

const (
	// EventPersistFailed is emitted when a periodic snapshot save fails.
	// Persistence is best-effort; the session keeps ticking.
	EventPersistFailed logging.EventType = "storage.persist_failed"
	// EventSnapshotSaved is emitted when a snapshot save succeeds.
	EventSnapshotSaved logging.EventType = "storage.snapshot_saved"
)

// PersistFailedPayload carries the save error text.
type PersistFailedPayload struct {
	Reason string `json:"reason"`
}

// SnapshotSavedPayload captures the size of the saved document.
type SnapshotSavedPayload struct {
	HitObjects   int `json:"hitObjects"`
	TimingPoints int `json:"timingPoints"`
}

// PersistFailed publishes a snapshot save failure.
func PersistFailed(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload PersistFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPersistFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindSession},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryStorage,
		Payload:  payload,
		Room:     room,
	})
}

// SnapshotSaved publishes a successful snapshot save.
func SnapshotSaved(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload SnapshotSavedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSnapshotSaved,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindSession},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryStorage,
		Payload:  payload,
		Room:     room,
	})
}
