package lifecycle

import (
	"context"

	"mapsync/server/logging"
)

const (
	// EventSessionStarted is emitted when a room session spins up after a
	// successful document load.
	EventSessionStarted logging.EventType = "lifecycle.session_started"
	// EventSessionEnded is emitted when a session terminates on idle timeout.
	EventSessionEnded logging.EventType = "lifecycle.session_ended"
	// EventUserJoined is emitted when a presence joins a session.
	EventUserJoined logging.EventType = "lifecycle.user_joined"
	// EventUserLeft is emitted when a presence leaves or disconnects.
	EventUserLeft logging.EventType = "lifecycle.user_left"
)

// SessionEndedPayload captures how long the session lived.
type SessionEndedPayload struct {
	Ticks      uint64 `json:"ticks"`
	EmptyTicks int    `json:"emptyTicks"`
}

// UserLeftPayload captures how many locks the departing user still held.
type UserLeftPayload struct {
	ReleasedLocks int `json:"releasedLocks"`
}

// SessionStarted publishes a session start event.
func SessionStarted(ctx context.Context, pub logging.Publisher, room string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionStarted,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindSession},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Room:     room,
	})
}

// SessionEnded publishes a session termination event.
func SessionEnded(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload SessionEndedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionEnded,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: room, Kind: logging.EntityKindSession},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Room:     room,
	})
}

// UserJoined publishes a presence join event.
func UserJoined(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUserJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Room:     room,
	})
}

// UserLeft publishes a presence departure event.
func UserLeft(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload UserLeftPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUserLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Room:     room,
	})
}
