package field

import "driftfield/server/internal/geom"

// mergedCollider fuses a body's rotated world silhouette with its caption
// rectangle into one convex hull. The resolver only ever collides this
// merged shape, so a neighboring asteroid or caption can never overlap
// either element. Built fresh from the current pose on every call.
func mergedCollider(b *Body, f Frame) []geom.Vec2 {
	world := b.WorldSilhouette()
	corners := b.labelCorners(f)

	points := make([]geom.Vec2, 0, len(world)+len(corners))
	points = append(points, world...)
	points = append(points, corners[:]...)
	return geom.ConvexHull(points)
}
