package sim

import (
	"driftfield/server/internal/field"
	"driftfield/server/internal/geom"
)

// State enumerates the engine lifecycle phases.
type State string

const (
	// StateUninitialized means Start has not run and the field is empty.
	StateUninitialized State = "uninitialized"
	// StateSettling means the initial overlap-resolution passes are running.
	StateSettling State = "settling"
	// StateLive means the field advances on every tick.
	StateLive State = "live"
	// StateStatic means the field holds a settled layout without drifting,
	// for viewers that prefer reduced motion.
	StateStatic State = "static"
)

// BodySnapshot carries the per-tick transform for one body.
type BodySnapshot struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	LabelX   float64 `json:"labelX"`
	LabelY   float64 `json:"labelY"`
}

// Snapshot captures the state exposed to non-simulation callers.
type Snapshot struct {
	Tick   uint64         `json:"tick"`
	Epoch  uint64         `json:"epoch"`
	State  State          `json:"state"`
	Frame  field.Frame    `json:"frame"`
	Bodies []BodySnapshot `json:"bodies"`
}

// BodyProfile describes the parts of a body that only change when the field
// reseeds: identity, palette color, and the wobble silhouette in local space.
type BodyProfile struct {
	ID         string      `json:"id"`
	Color      string      `json:"color"`
	Radius     float64     `json:"radius"`
	Silhouette []geom.Vec2 `json:"silhouette"`
}

// LabelMetrics tells renderers how large captions are and how far below the
// silhouette they hang.
type LabelMetrics struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Gap    float64 `json:"gap"`
}

// Layout bundles everything a renderer needs to draw the field from scratch.
// It is resent whenever the epoch advances; per-tick snapshots only carry
// transforms.
type Layout struct {
	Seed     string        `json:"seed"`
	Epoch    uint64        `json:"epoch"`
	State    State         `json:"state"`
	TickRate int           `json:"tickRate"`
	Frame    field.Frame   `json:"frame"`
	Label    LabelMetrics  `json:"label"`
	Bodies   []BodyProfile `json:"bodies"`
}
