package geom

import "math"

// MTV is the minimum translation vector between two overlapping convex
// polygons. Normal is unit length and points from the first polygon's
// centroid toward the second's, so a resolver can always move the first
// backward along it and the second forward without a sign check.
type MTV struct {
	Normal Vec2
	Depth  float64
}

// Collide runs a separating-axis test between two convex polygons, checking
// the edge normals of both. The first axis with zero or negative projection
// overlap proves separation and short-circuits. When every axis overlaps,
// the axis of minimum overlap becomes the MTV. Polygons with fewer than
// three vertices never collide.
func Collide(a, b []Vec2) (MTV, bool) {
	if len(a) < 3 || len(b) < 3 {
		return MTV{}, false
	}

	depth := math.MaxFloat64
	var normal Vec2

	for _, poly := range [2][]Vec2{a, b} {
		for i := range poly {
			edge := poly[(i+1)%len(poly)].Sub(poly[i])
			axis := edge.Perp().Normalize()
			if axis == (Vec2{}) {
				continue
			}

			minA, maxA := project(a, axis)
			minB, maxB := project(b, axis)
			overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
			if overlap <= 0 {
				return MTV{}, false
			}
			if overlap < depth {
				depth = overlap
				normal = axis
			}
		}
	}

	if Centroid(b).Sub(Centroid(a)).Dot(normal) < 0 {
		normal = normal.Scale(-1)
	}
	return MTV{Normal: normal, Depth: depth}, true
}

func project(poly []Vec2, axis Vec2) (min, max float64) {
	min = poly[0].Dot(axis)
	max = min
	for _, p := range poly[1:] {
		d := p.Dot(axis)
		if d < min {
			min = d
		} else if d > max {
			max = d
		}
	}
	return min, max
}
