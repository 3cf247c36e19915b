package lifecycle

import (
	"context"

	"driftfield/server/logging"
)

const (
	// EventFieldSeeded is emitted when a field finishes seeding its bodies.
	EventFieldSeeded logging.EventType = "lifecycle.field_seeded"
	// EventFieldSettled is emitted when the initialization pre-solve converges.
	EventFieldSettled logging.EventType = "lifecycle.field_settled"
	// EventFieldReseeded is emitted when the field is rebuilt from normalized coordinates.
	EventFieldReseeded logging.EventType = "lifecycle.field_reseeded"
	// EventMotionModeChanged is emitted when the field switches between live and static motion.
	EventMotionModeChanged logging.EventType = "lifecycle.motion_mode_changed"
	// EventViewerJoined is emitted when a viewer joins the hub.
	EventViewerJoined logging.EventType = "lifecycle.viewer_joined"
	// EventViewerDisconnected is emitted when a viewer leaves or is pruned.
	EventViewerDisconnected logging.EventType = "lifecycle.viewer_disconnected"
)

// Reseed reasons carried by FieldReseededPayload.
const (
	ReasonStructuralResize = "structural_resize"
	ReasonCatalogReload    = "catalog_reload"
	ReasonManual           = "manual"
)

// FieldSeededPayload captures the shape of a freshly seeded field.
type FieldSeededPayload struct {
	Seed   string  `json:"seed"`
	Bodies int     `json:"bodies"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldSettledPayload captures how quickly the pre-solve converged.
type FieldSettledPayload struct {
	Passes int `json:"passes"`
}

// FieldReseededPayload captures why the field was rebuilt.
type FieldReseededPayload struct {
	Reason string `json:"reason"`
	Bodies int    `json:"bodies"`
}

// MotionModePayload captures the active motion mode.
type MotionModePayload struct {
	Reduced bool `json:"reduced"`
}

// ViewerPayload captures the viewer population after a join or departure.
type ViewerPayload struct {
	Reason  string `json:"reason,omitempty"`
	Viewers int    `json:"viewers"`
}

// FieldSeeded publishes a field seeding event.
func FieldSeeded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FieldSeededPayload, extra map[string]any) {
	publish(ctx, pub, EventFieldSeeded, tick, actor, payload, extra)
}

// FieldSettled publishes a pre-solve completion event.
func FieldSettled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FieldSettledPayload, extra map[string]any) {
	publish(ctx, pub, EventFieldSettled, tick, actor, payload, extra)
}

// FieldReseeded publishes a field rebuild event.
func FieldReseeded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FieldReseededPayload, extra map[string]any) {
	publish(ctx, pub, EventFieldReseeded, tick, actor, payload, extra)
}

// MotionModeChanged publishes a motion mode switch.
func MotionModeChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MotionModePayload, extra map[string]any) {
	publish(ctx, pub, EventMotionModeChanged, tick, actor, payload, extra)
}

// ViewerJoined publishes a viewer join event.
func ViewerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ViewerPayload, extra map[string]any) {
	publish(ctx, pub, EventViewerJoined, tick, actor, payload, extra)
}

// ViewerDisconnected publishes a viewer departure event.
func ViewerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ViewerPayload, extra map[string]any) {
	publish(ctx, pub, EventViewerDisconnected, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	})
}
