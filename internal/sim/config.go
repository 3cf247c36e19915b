package sim

import (
	"time"

	"driftfield/server/internal/field"
	"driftfield/server/internal/telemetry"
	"driftfield/server/logging"
)

const (
	// DefaultTickRate keeps the frame multiplier near 1 so drift and spin
	// stay in their per-nominal-frame units.
	DefaultTickRate = 60
	// DefaultDebounceWindow is how long viewport updates coalesce before the
	// engine applies the latest one.
	DefaultDebounceWindow = 150 * time.Millisecond
	// DefaultReseedHeightDelta is the height change, in pixels, beyond which
	// a viewport update reseeds the field instead of rescaling it.
	DefaultReseedHeightDelta = 120.0
)

// DefaultFrame is the layout frame used before any viewer reports a real
// viewport.
var DefaultFrame = field.Frame{Width: 1280, Height: 800}

// Config tunes the engine: the catalog specs to seed, pacing, and the
// shared observability plumbing.
type Config struct {
	Seed              string
	Specs             []field.Spec
	Frame             field.Frame
	TickRate          int
	ReducedMotion     bool
	DebounceWindow    time.Duration
	ReseedHeightDelta float64

	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

func (c Config) normalized() Config {
	if c.Seed == "" {
		c.Seed = field.DefaultSeed
	}
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		c.Frame = DefaultFrame
	}
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.ReseedHeightDelta <= 0 {
		c.ReseedHeightDelta = DefaultReseedHeightDelta
	}
	if c.Publisher == nil {
		c.Publisher = logging.NopPublisher()
	}
	return c
}
