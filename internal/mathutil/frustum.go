package mathutil

// Plane represents a plane in 3D space using the equation ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance term. Points with
// ax + by + cz + d >= 0 are on the positive side.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// SignedDistance returns the signed distance from p to the plane. Positive
// means p is on the normal's side.
func (pl Plane) SignedDistance(p Vec3) float32 {
	return pl.Normal.Dot(p) + pl.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that the positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// Frustum plane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// FrustumFromMatrix extracts frustum planes from a combined view-projection
// matrix (row-major) using the Gribb/Hartmann method: each plane is a sum or
// difference of the fourth row with one of the first three.
func FrustumFromMatrix(vp Mat4) Frustum {
	row := func(i int) [4]float32 {
		return [4]float32{vp[i*4], vp[i*4+1], vp[i*4+2], vp[i*4+3]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	set := func(idx int, a, b [4]float32, sub bool) {
		if sub {
			f.Planes[idx] = Plane{
				Normal:   Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]},
				Distance: a[3] - b[3],
			}
		} else {
			f.Planes[idx] = Plane{
				Normal:   Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]},
				Distance: a[3] + b[3],
			}
		}
	}
	set(FrustumLeft, r3, r0, false)
	set(FrustumRight, r3, r0, true)
	set(FrustumBottom, r3, r1, false)
	set(FrustumTop, r3, r1, true)
	set(FrustumNear, r3, r2, false)
	set(FrustumFar, r3, r2, true)

	for i := range f.Planes {
		f.normalizePlane(i)
	}
	return f
}

// normalizePlane scales a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	l := p.Normal.Len()
	if l > 0 {
		inv := 1.0 / l
		p.Normal = p.Normal.Scale(inv)
		p.Distance *= inv
	}
}

// IntersectsAABB reports whether the box may be inside the frustum. A box is
// rejected only when all eight corners lie on the negative side of one plane;
// every other outcome counts as visible. Conservative: may report boxes just
// outside the frustum as visible, never the reverse.
func (f *Frustum) IntersectsAABB(b AABB) bool {
	corners := b.Corners()
	for _, pl := range f.Planes {
		out := 0
		for _, c := range corners {
			if pl.SignedDistance(c) < 0 {
				out++
			}
		}
		if out == 8 {
			return false
		}
	}
	return true
}
