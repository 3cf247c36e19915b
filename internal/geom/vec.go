// Package geom provides the convex-polygon primitives the field simulation
// collides: 2D vectors, monotone-chain hulls, and a separating-axis overlap
// test that reports a minimum translation vector.
package geom

import "math"

const epsilon = 1e-9

// Vec2 is a point or direction in viewport pixel space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) LengthSq() float64 { return v.X*v.X + v.Y*v.Y }

// Perp returns v rotated a quarter turn, the edge-normal direction used by
// the separating-axis test.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Normalize returns the unit vector along v. Vectors shorter than epsilon
// normalize to zero so degenerate edges can never yield a NaN axis.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < epsilon {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Centroid returns the vertex mean of poly, or the zero vector for an empty
// polygon.
func Centroid(poly []Vec2) Vec2 {
	if len(poly) == 0 {
		return Vec2{}
	}
	var sum Vec2
	for _, p := range poly {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(poly)))
}
