package mathutil

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box. A box with Min > Max on any axis is
// empty; EmptyAABB starts at +inf/-inf so that the first Extend sets it.
type AABB struct {
	Min Vec3
	Max Vec3
}

func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include point p.
func (b AABB) Extend(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return AABB{Min: a.Min.Min(b.Min), Max: a.Max.Max(b.Max)}
}

func (b AABB) Center() Vec3 {
	return Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// LongestAxis returns 0, 1 or 2 for the axis with the greatest extent.
func (b AABB) LongestAxis() int {
	s := b.Size()
	axis := 0
	if s[1] > s[axis] {
		axis = 1
	}
	if s[2] > s[axis] {
		axis = 2
	}
	return axis
}

// Corners returns the eight corner points of the box.
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}
