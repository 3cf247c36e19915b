package network

import (
	"context"

	"driftfield/server/logging"
)

const (
	// EventMalformedMessage is emitted when a client message fails to decode and is discarded.
	EventMalformedMessage logging.EventType = "network.malformed_message"
	// EventSlowConsumer is emitted when a subscriber misses its write deadline and is dropped.
	EventSlowConsumer logging.EventType = "network.slow_consumer"
)

// MalformedMessagePayload captures the decode failure for a discarded message.
type MalformedMessagePayload struct {
	Error string `json:"error"`
}

// SlowConsumerPayload captures the write failure that evicted a subscriber.
type SlowConsumerPayload struct {
	Error string `json:"error"`
}

// MalformedMessage publishes a warning for a discarded client message.
func MalformedMessage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MalformedMessagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMalformedMessage,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: "network",
		Payload:  payload,
		Extra:    extra,
	})
}

// SlowConsumer publishes a warning when a subscriber cannot keep up with the broadcast cadence.
func SlowConsumer(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SlowConsumerPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSlowConsumer,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: "network",
		Payload:  payload,
		Extra:    extra,
	})
}
