package field

import (
	"math"

	"driftfield/server/internal/geom"
)

// Body is one asteroid marker's simulated state. Position and rotation
// mutate every frame; the silhouette is generated once at seeding and only
// transformed at query time.
type Body struct {
	ID     string
	Pos    geom.Vec2
	Rot    float64   // degrees, wraps implicitly
	Drift  geom.Vec2 // pixels per nominal frame
	Spin   float64   // degrees per nominal frame
	Radius float64
	Color  string

	// Normalized seed coordinates, kept for reseeding after structural
	// resizes.
	NormX float64
	NormY float64

	silhouette []geom.Vec2
}

func newBody(rootSeed string, spec Spec, frame Frame) *Body {
	rng := newDeterministicRNG(rootSeed, "body:"+spec.ID)
	radius := spec.Size / 2

	b := &Body{
		ID:     spec.ID,
		Pos:    geom.Vec2{X: spec.NormX * frame.Width, Y: spec.NormY * frame.Height},
		Rot:    randRange(rng, 0, 360),
		Radius: radius,
		Color:  spec.Color,
		NormX:  spec.NormX,
		NormY:  spec.NormY,
	}

	heading := randAngle(rng)
	speed := randRange(rng, driftSpeedMin, driftSpeedMax)
	b.Drift = geom.Vec2{X: math.Cos(heading) * speed, Y: math.Sin(heading) * speed}

	b.Spin = randRange(rng, spinSpeedMin, spinSpeedMax)
	if rng.Intn(2) == 0 {
		b.Spin = -b.Spin
	}

	b.silhouette = generateSilhouette(radius, randAngle(rng))
	return b
}

// generateSilhouette rings vertices around the collision radius, wobbling
// each with two sine harmonics sharing one phase seed.
func generateSilhouette(radius, phase float64) []geom.Vec2 {
	verts := make([]geom.Vec2, silhouetteVertices)
	for i := range verts {
		theta := float64(i) / silhouetteVertices * 2 * math.Pi
		wobble := 1 +
			wobbleAmpPrimary*math.Sin(wobbleHarmonicPrimary*theta+phase) +
			wobbleAmpSecondary*math.Sin(wobbleHarmonicSecond*theta+wobblePhaseSpread*phase)
		r := radius * wobble
		verts[i] = geom.Vec2{X: math.Cos(theta) * r, Y: math.Sin(theta) * r}
	}
	return verts
}

// Silhouette returns a copy of the body's local-space outline.
func (b *Body) Silhouette() []geom.Vec2 {
	out := make([]geom.Vec2, len(b.silhouette))
	copy(out, b.silhouette)
	return out
}

// WorldSilhouette maps the outline into viewport space with the body's
// current rotation and position. Recomputed per call so rotation changes
// show up immediately.
func (b *Body) WorldSilhouette() []geom.Vec2 {
	sin, cos := math.Sincos(b.Rot * math.Pi / 180)
	out := make([]geom.Vec2, len(b.silhouette))
	for i, p := range b.silhouette {
		out[i] = geom.Vec2{
			X: b.Pos.X + p.X*cos - p.Y*sin,
			Y: b.Pos.Y + p.X*sin + p.Y*cos,
		}
	}
	return out
}

// LabelAnchor returns the top-left corner of the body's caption rectangle,
// centered under the asteroid.
func (b *Body) LabelAnchor(f Frame) geom.Vec2 {
	w, _ := LabelSize(f)
	return geom.Vec2{X: b.Pos.X - w/2, Y: b.Pos.Y + b.Radius + LabelGap}
}

func (b *Body) labelCorners(f Frame) [4]geom.Vec2 {
	w, h := LabelSize(f)
	tl := b.LabelAnchor(f)
	return [4]geom.Vec2{
		tl,
		{X: tl.X + w, Y: tl.Y},
		{X: tl.X + w, Y: tl.Y + h},
		{X: tl.X, Y: tl.Y + h},
	}
}
