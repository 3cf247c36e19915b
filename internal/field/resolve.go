package field

import "driftfield/server/internal/geom"

// Resolve runs pairwise separation passes, clamping every body to bounds
// after each pass. Steady state uses a small fixed iteration count;
// settling calls it repeatedly with one iteration at a time.
func (f *Field) Resolve(iterations int) {
	for iter := 0; iter < iterations; iter++ {
		adjusted := f.resolvePass()
		for _, b := range f.bodies {
			f.clampBody(b)
		}
		if !adjusted {
			break
		}
	}
}

// Settle runs the initialization pre-solve: single-iteration resolves until
// a pass stops moving bodies or the budget runs out, so the first painted
// frame shows no popping. Returns the number of passes spent.
func (f *Field) Settle() int {
	for pass := 1; pass <= settleMaxPasses; pass++ {
		before := f.positions()
		f.Resolve(1)
		if f.maxShift(before) <= settleEpsilon {
			return pass
		}
	}
	return settleMaxPasses
}

// resolvePass visits every unordered pair once in body index order,
// separating overlapping merged colliders and exchanging a bounce impulse.
// With near-elastic bounces and per-frame re-solving the visiting order has
// no lasting effect, so no fairness shuffle is needed. Reports whether any
// pair was adjusted.
func (f *Field) resolvePass() bool {
	adjusted := false
	for i := 0; i < len(f.bodies); i++ {
		for j := i + 1; j < len(f.bodies); j++ {
			a := f.bodies[i]
			b := f.bodies[j]

			mtv, hit := geom.Collide(mergedCollider(a, f.frame), mergedCollider(b, f.frame))
			if !hit {
				continue
			}

			push := (mtv.Depth + separationSlack) / 2
			a.Pos = a.Pos.Sub(mtv.Normal.Scale(push))
			b.Pos = b.Pos.Add(mtv.Normal.Scale(push))

			applyBounce(a, b, mtv.Normal)
			adjusted = true
		}
	}
	return adjusted
}

// applyBounce exchanges drift between a closing pair. Restitution stays
// near one so the field keeps its energy instead of damping to stillness;
// the tangential term bleeds off just enough sliding to stop micro-jitter.
func applyBounce(a, b *Body, normal geom.Vec2) {
	rel := b.Drift.Sub(a.Drift)
	closing := rel.Dot(normal)
	if closing >= 0 {
		return
	}

	impulse := -(1 + bodyRestitution) * closing / 2
	a.Drift = a.Drift.Sub(normal.Scale(impulse))
	b.Drift = b.Drift.Add(normal.Scale(impulse))

	tangent := rel.Sub(normal.Scale(closing))
	if tangent.LengthSq() < frictionEpsilon {
		return
	}
	tangent = tangent.Normalize()
	friction := rel.Dot(tangent) * frictionCoeff / 2
	a.Drift = a.Drift.Add(tangent.Scale(friction))
	b.Drift = b.Drift.Sub(tangent.Scale(friction))
}

// clampBody keeps a body's center inside the frame's padded bounds,
// reflecting the offending drift component with wall restitution so bodies
// bounce off edges instead of sticking to them.
func (f *Field) clampBody(b *Body) {
	minX, maxX, minY, maxY := f.bounds(b)

	if b.Pos.X < minX {
		b.Pos.X = minX
		if b.Drift.X < 0 {
			b.Drift.X = -b.Drift.X * wallRestitution
		}
	} else if b.Pos.X > maxX {
		b.Pos.X = maxX
		if b.Drift.X > 0 {
			b.Drift.X = -b.Drift.X * wallRestitution
		}
	}

	if b.Pos.Y < minY {
		b.Pos.Y = minY
		if b.Drift.Y < 0 {
			b.Drift.Y = -b.Drift.Y * wallRestitution
		}
	} else if b.Pos.Y > maxY {
		b.Pos.Y = maxY
		if b.Drift.Y > 0 {
			b.Drift.Y = -b.Drift.Y * wallRestitution
		}
	}
}

// bounds returns the rectangle a body's center may occupy: padded by the
// body's own radius, widened for its caption so text cannot leave the
// frame, and cut off at depthLimitRatio of the height so the caption stays
// clear of the page's lower band.
func (f *Field) bounds(b *Body) (minX, maxX, minY, maxY float64) {
	labelW, labelH := LabelSize(f.frame)

	halfSpan := b.Radius
	if half := labelW / 2; half > halfSpan {
		halfSpan = half
	}

	minX = edgePadding + halfSpan
	maxX = f.frame.Width - edgePadding - halfSpan
	minY = edgePadding + b.Radius
	maxY = depthLimitRatio*f.frame.Height - b.Radius - LabelGap - labelH

	if maxX < minX {
		// Caption wider than the frame: pin the horizontal span shut.
		mid := f.frame.Width / 2
		minX, maxX = mid, mid
	}
	if maxY < minY {
		maxY = minY
	}
	return minX, maxX, minY, maxY
}

func (f *Field) positions() []geom.Vec2 {
	out := make([]geom.Vec2, len(f.bodies))
	for i, b := range f.bodies {
		out[i] = b.Pos
	}
	return out
}

func (f *Field) maxShift(before []geom.Vec2) float64 {
	max := 0.0
	for i, b := range f.bodies {
		if d := b.Pos.Sub(before[i]).Length(); d > max {
			max = d
		}
	}
	return max
}
