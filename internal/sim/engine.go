// Package sim drives the asteroid field through its lifecycle: seed the
// bodies, run the settle passes, then advance drift and spin tick by tick
// while folding in debounced viewport changes.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"driftfield/server/internal/field"
	"driftfield/server/internal/geom"
	"driftfield/server/logging"
	"driftfield/server/logging/lifecycle"
	"driftfield/server/logging/simulation"
)

// The frame multiplier is clamped so a stalled tab or a long GC pause never
// teleports bodies or tunnels them through each other.
const (
	minFrameMultiplier = 0.5
	maxFrameMultiplier = 2.0
)

var fieldEntity = logging.EntityRef{ID: "field", Kind: logging.EntityKindField}

// StepResult reports a single engine advance.
type StepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Multiplier   float64
	ClampedDelta bool
	Snapshot     Snapshot
}

// Engine owns the field and its pacing. All exported methods are safe for
// concurrent use; the zero value is unusable, construct with NewEngine.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	field *field.Field
	state State
	tick  uint64
	epoch uint64

	lastStep time.Time

	pendingFrame field.Frame
	pendingAt    time.Time
	hasPending   bool
}

// NewEngine builds an engine from the config. The field stays empty until
// Start runs.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalized(), state: StateUninitialized}
}

// Start seeds the field, settles it, and moves the engine to its steady
// state. Calls after the first are no-ops.
func (e *Engine) Start(now time.Time) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateUninitialized {
		return
	}
	e.seedLocked(now, e.cfg.Frame)
}

// Advance runs one tick: apply any debounced viewport change, derive the
// frame multiplier from wall-clock delta, and integrate when live. Static
// fields still accept viewport changes but never drift.
func (e *Engine) Advance(now time.Time) StepResult {
	if e == nil {
		return StepResult{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateUninitialized {
		return StepResult{Now: now, Snapshot: e.snapshotLocked()}
	}
	e.tick++
	e.applyPendingFrameLocked(now)

	budget := 1.0 / float64(e.cfg.TickRate)
	dt := now.Sub(e.lastStep).Seconds()
	if dt <= 0 {
		dt = budget
	}
	e.lastStep = now

	multiplier := dt / budget
	clamped := false
	if multiplier < minFrameMultiplier {
		multiplier = minFrameMultiplier
		clamped = true
	} else if multiplier > maxFrameMultiplier {
		multiplier = maxFrameMultiplier
		clamped = true
	}

	if e.state == StateLive {
		e.field.Step(multiplier)
		if clamped {
			simulation.DeltaClamped(context.Background(), e.cfg.Publisher, e.tick, simulation.DeltaClampedPayload{
				DeltaSeconds: dt,
				Multiplier:   multiplier,
			}, nil)
			e.addMetric("sim_clamped_deltas", 1)
		}
	}
	e.addMetric("sim_ticks", 1)

	return StepResult{
		Tick:         e.tick,
		Now:          now,
		Delta:        dt,
		Multiplier:   multiplier,
		ClampedDelta: clamped,
		Snapshot:     e.snapshotLocked(),
	}
}

// SetViewport records the latest viewport. Updates coalesce for the debounce
// window; the next tick past the window applies the final size, either
// rescaling in place or reseeding when the height changed structurally.
// Non-positive dimensions are ignored.
func (e *Engine) SetViewport(now time.Time, frame field.Frame) {
	if e == nil || frame.Width <= 0 || frame.Height <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateUninitialized {
		e.cfg.Frame = frame
		return
	}
	e.pendingFrame = frame
	e.pendingAt = now
	e.hasPending = true
}

// SetReducedMotion switches the field between live drifting and a static
// settled layout.
func (e *Engine) SetReducedMotion(now time.Time, reduced bool) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.ReducedMotion = reduced
	switch {
	case e.state == StateLive && reduced:
		e.state = StateStatic
		e.field.Resolve(1)
	case e.state == StateStatic && !reduced:
		e.state = StateLive
		e.lastStep = now
	default:
		return
	}
	lifecycle.MotionModeChanged(context.Background(), e.cfg.Publisher, e.tick, fieldEntity, lifecycle.MotionModePayload{
		Reduced: reduced,
	}, nil)
}

// SetSeed replaces the root seed used by future reseeds. Empty seeds are
// ignored; the current layout is untouched until Reseed runs.
func (e *Engine) SetSeed(seed string) {
	if e == nil || seed == "" {
		return
	}
	e.mu.Lock()
	e.cfg.Seed = seed
	e.mu.Unlock()
}

// Reseed rebuilds the field from normalized coordinates inside the current
// frame. An empty reason is recorded as a manual reset.
func (e *Engine) Reseed(now time.Time, reason string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateUninitialized {
		return
	}
	if reason == "" {
		reason = lifecycle.ReasonManual
	}
	e.reseedLocked(now, e.field.Frame(), reason)
}

// Reset applies a new seed, frame, and motion mode in one step and rebuilds
// the field immediately, skipping the viewport debounce. Zero-value fields
// keep their current setting.
func (e *Engine) Reset(now time.Time, seed string, frame field.Frame, reduced bool) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if seed != "" {
		e.cfg.Seed = seed
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		if e.field != nil {
			frame = e.field.Frame()
		} else {
			frame = e.cfg.Frame
		}
	}
	e.cfg.ReducedMotion = reduced
	e.hasPending = false
	if e.state == StateUninitialized {
		e.cfg.Frame = frame
		return
	}
	e.reseedLocked(now, frame, lifecycle.ReasonManual)
}

// SwapProjects replaces the seeded specs and rebuilds the field. Before
// Start it only stages the specs.
func (e *Engine) SwapProjects(now time.Time, specs []field.Spec) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Specs = specs
	if e.state == StateUninitialized {
		return
	}
	e.reseedLocked(now, e.field.Frame(), lifecycle.ReasonCatalogReload)
}

// HitTest returns the first body whose padded collision circle contains the
// point, in seed order.
func (e *Engine) HitTest(p geom.Vec2) (string, bool) {
	if e == nil {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.field == nil {
		return "", false
	}
	return e.field.HitTest(p)
}

// TickRate reports the configured ticks per second.
func (e *Engine) TickRate() int {
	if e == nil {
		return DefaultTickRate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.TickRate
}

// Snapshot returns the current per-tick view of the field.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Layout returns the epoch keyframe: silhouettes, caption metrics, and the
// frame, everything a renderer needs before it can consume snapshots.
func (e *Engine) Layout() Layout {
	if e == nil {
		return Layout{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	layout := Layout{
		Seed:     e.cfg.Seed,
		Epoch:    e.epoch,
		State:    e.state,
		TickRate: e.cfg.TickRate,
	}
	if e.field == nil {
		return layout
	}
	frame := e.field.Frame()
	layout.Frame = frame
	w, h := field.LabelSize(frame)
	layout.Label = LabelMetrics{Width: w, Height: h, Gap: field.LabelGap}
	bodies := e.field.Bodies()
	layout.Bodies = make([]BodyProfile, 0, len(bodies))
	for _, b := range bodies {
		layout.Bodies = append(layout.Bodies, BodyProfile{
			ID:         b.ID,
			Color:      b.Color,
			Radius:     b.Radius,
			Silhouette: b.Silhouette(),
		})
	}
	return layout
}

func (e *Engine) seedLocked(now time.Time, frame field.Frame) {
	e.state = StateSettling
	f := field.NewField(e.cfg.Seed, e.cfg.Specs, frame)
	passes := f.Settle()
	e.field = f
	e.epoch++
	e.lastStep = now
	if e.cfg.ReducedMotion {
		e.state = StateStatic
	} else {
		e.state = StateLive
	}
	lifecycle.FieldSeeded(context.Background(), e.cfg.Publisher, e.tick, fieldEntity, lifecycle.FieldSeededPayload{
		Seed:   e.cfg.Seed,
		Bodies: len(f.Bodies()),
		Width:  frame.Width,
		Height: frame.Height,
	}, nil)
	lifecycle.FieldSettled(context.Background(), e.cfg.Publisher, e.tick, fieldEntity, lifecycle.FieldSettledPayload{
		Passes: passes,
	}, nil)
	e.addMetric("sim_settle_passes", uint64(passes))
}

func (e *Engine) reseedLocked(now time.Time, frame field.Frame, reason string) {
	e.seedLocked(now, frame)
	lifecycle.FieldReseeded(context.Background(), e.cfg.Publisher, e.tick, fieldEntity, lifecycle.FieldReseededPayload{
		Reason: reason,
		Bodies: len(e.field.Bodies()),
	}, nil)
	e.addMetric("sim_reseeds", 1)
}

func (e *Engine) applyPendingFrameLocked(now time.Time) {
	if !e.hasPending || now.Sub(e.pendingAt) < e.cfg.DebounceWindow {
		return
	}
	frame := e.pendingFrame
	e.hasPending = false
	current := e.field.Frame()
	if frame == current {
		return
	}
	if math.Abs(frame.Height-current.Height) > e.cfg.ReseedHeightDelta {
		e.reseedLocked(now, frame, lifecycle.ReasonStructuralResize)
		return
	}
	e.field.Rescale(frame)
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{Tick: e.tick, Epoch: e.epoch, State: e.state}
	if e.field == nil {
		return snap
	}
	frame := e.field.Frame()
	snap.Frame = frame
	bodies := e.field.Bodies()
	snap.Bodies = make([]BodySnapshot, 0, len(bodies))
	for _, b := range bodies {
		anchor := b.LabelAnchor(frame)
		snap.Bodies = append(snap.Bodies, BodySnapshot{
			ID:       b.ID,
			X:        b.Pos.X,
			Y:        b.Pos.Y,
			Rotation: b.Rot,
			LabelX:   anchor.X,
			LabelY:   anchor.Y,
		})
	}
	return snap
}

func (e *Engine) addMetric(key string, delta uint64) {
	if e.cfg.Metrics == nil {
		return
	}
	e.cfg.Metrics.Add(key, delta)
}
