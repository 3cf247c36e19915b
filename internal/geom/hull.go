package geom

import "sort"

// ConvexHull builds the convex hull of points with the monotone-chain
// algorithm. Inputs of three or fewer points are already convex (or
// degenerate) and come back as a copy, unchanged. Larger inputs return the
// hull in counter-clockwise order with interior and collinear points removed.
// The sort breaks ties by x then y, so the result is deterministic for a
// given input set.
func ConvexHull(points []Vec2) []Vec2 {
	if len(points) <= 3 {
		out := make([]Vec2, len(points))
		copy(out, points)
		return out
	}

	sorted := make([]Vec2, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	lower := make([]Vec2, 0, len(sorted))
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	upper := make([]Vec2, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// Each chain's last point is the other chain's first.
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// cross returns the z-component of (a-o) x (b-o): positive when o->a->b
// turns counter-clockwise.
func cross(o, a, b Vec2) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
