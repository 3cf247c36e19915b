// Package field owns the asteroid layout simulation: per-project body
// state, merged body+caption colliders, iterative pairwise separation with
// near-elastic bounces, and viewport containment.
package field

import "driftfield/server/internal/geom"

// Frame is the viewport rectangle the field lays out into, in pixels.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Compact reports whether the frame sits below the compact breakpoint and
// therefore uses the smaller caption size.
func (f Frame) Compact() bool {
	return f.Width < compactBreakpoint
}

// LabelSize returns the caption dimensions for the frame's breakpoint.
func LabelSize(f Frame) (w, h float64) {
	if f.Compact() {
		return labelWidthCompact, labelHeightCompact
	}
	return labelWidthDesktop, labelHeightDesktop
}

// Spec seeds one body: a stable id plus the normalized placement hints
// carried by the project catalog.
type Spec struct {
	ID    string
	NormX float64
	NormY float64
	Size  float64
	Color string
}

// Field holds every seeded body and the frame they live in. It is a plain
// data structure: callers own synchronization and pacing.
type Field struct {
	seed   string
	frame  Frame
	bodies []*Body
}

// NewField seeds one body per spec at its normalized coordinates. The root
// seed and each spec id feed a deterministic RNG, so the same catalog and
// seed always reproduce the same field.
func NewField(rootSeed string, specs []Spec, frame Frame) *Field {
	f := &Field{seed: rootSeed, frame: frame, bodies: make([]*Body, 0, len(specs))}
	for _, spec := range specs {
		f.bodies = append(f.bodies, newBody(rootSeed, spec, frame))
	}
	return f
}

// Seed returns the root seed the field was built from.
func (f *Field) Seed() string { return f.seed }

// Frame returns the current viewport frame.
func (f *Field) Frame() Frame { return f.frame }

// Bodies returns the live body slice in seed order.
func (f *Field) Bodies() []*Body { return f.bodies }

// Body returns the body with the given id.
func (f *Field) Body(id string) (*Body, bool) {
	for _, b := range f.bodies {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Step integrates drift and spin scaled by the clamped frame multiplier,
// then runs the steady-state resolve.
func (f *Field) Step(m float64) {
	for _, b := range f.bodies {
		b.Pos = b.Pos.Add(b.Drift.Scale(m))
		b.Rot += b.Spin * m
	}
	f.Resolve(steadyPasses)
}

// Rescale remaps every body proportionally into the new frame and re-clamps
// with a single resolve pass. Structural size changes should reseed instead;
// this path is for viewport jitter and plain window resizes.
func (f *Field) Rescale(frame Frame) {
	if f.frame.Width > 0 && f.frame.Height > 0 && frame.Width > 0 && frame.Height > 0 {
		sx := frame.Width / f.frame.Width
		sy := frame.Height / f.frame.Height
		for _, b := range f.bodies {
			b.Pos.X *= sx
			b.Pos.Y *= sy
		}
	}
	f.frame = frame
	f.Resolve(1)
}

// HitTest returns the first body, in seed order, whose padded collision
// circle contains the point.
func (f *Field) HitTest(p geom.Vec2) (string, bool) {
	for _, b := range f.bodies {
		if p.Sub(b.Pos).Length() < b.Radius+hitPadding {
			return b.ID, true
		}
	}
	return "", false
}
