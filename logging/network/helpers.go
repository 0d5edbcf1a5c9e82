package network

import (
	"context"

	"mapsync/server/logging"
)

const (
	// EventSendQueueDrop is emitted when a presence's outbound queue
	// overflows and the presence is dropped.
	EventSendQueueDrop logging.EventType = "network.send_queue_drop"
	// EventDecodeFailed is emitted when an inbound frame cannot be decoded.
	EventDecodeFailed logging.EventType = "network.decode_failed"
)

// SendQueueDropPayload captures the queue capacity in force at drop time.
type SendQueueDropPayload struct {
	Capacity int `json:"capacity"`
}

// DecodeFailedPayload carries the decode error text.
type DecodeFailedPayload struct {
	Reason string `json:"reason"`
}

// SendQueueDrop publishes a slow-client drop event.
func SendQueueDrop(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload SendQueueDropPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSendQueueDrop,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Room:     room,
	})
}

// DecodeFailed publishes an inbound decode failure event.
func DecodeFailed(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload DecodeFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDecodeFailed,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Room:     room,
	})
}
