// Package camera builds view and projection matrices for the snapshot
// renderer and derives the culling frustum from them.
package camera

import (
	"github.com/chewxy/math32"

	"vim-scene-renderer/internal/mathutil"
)

// Orbit describes a camera circling a focus point. Zero values pick
// defaults; Distance 0 auto-frames the scene bounds.
type Orbit struct {
	Azimuth   float32 // degrees around the Y axis
	Elevation float32 // degrees above the horizon
	Distance  float32
	FOV       float32 // vertical, degrees
	Aspect    float32
	Near      float32
	Far       float32
}

// Camera holds the matrices of one fixed viewpoint.
type Camera struct {
	Eye      mathutil.Vec3
	Target   mathutil.Vec3
	View     mathutil.Mat4
	Proj     mathutil.Mat4
	ViewProj mathutil.Mat4
}

func deg2rad(d float32) float32 {
	return d * math32.Pi / 180
}

// Frame positions an orbit camera around the given bounds and returns the
// resulting camera. The default orbit looks slightly down from the front
// right, the way the preview snapshots are framed.
func Frame(bounds mathutil.AABB, o Orbit) Camera {
	if o.FOV <= 0 {
		o.FOV = 45
	}
	if o.Aspect <= 0 {
		o.Aspect = 1
	}

	target := bounds.Center()
	radius := bounds.Size().Len() / 2
	if radius <= 0 || bounds.IsEmpty() {
		target = mathutil.Vec3{}
		radius = 1
	}
	if o.Distance <= 0 {
		// Fit the bounding sphere in the vertical field of view with a
		// little margin.
		o.Distance = radius / math32.Tan(deg2rad(o.FOV)/2) * 1.2
	}
	if o.Near <= 0 {
		o.Near = o.Distance / 1000
	}
	if o.Far <= 0 {
		o.Far = o.Distance + radius*4
	}

	az := deg2rad(o.Azimuth)
	el := deg2rad(o.Elevation)
	dir := mathutil.Vec3{
		math32.Cos(el) * math32.Sin(az),
		math32.Sin(el),
		math32.Cos(el) * math32.Cos(az),
	}
	eye := target.Add(dir.Scale(o.Distance))

	view := mathutil.LookAt(eye, target, mathutil.Vec3{0, 1, 0})
	proj := mathutil.Perspective(deg2rad(o.FOV), o.Aspect, o.Near, o.Far)
	return Camera{
		Eye:      eye,
		Target:   target,
		View:     view,
		Proj:     proj,
		ViewProj: mathutil.Mat4Mul(proj, view),
	}
}

// Frustum extracts the six culling planes from the view-projection matrix.
func (c Camera) Frustum() mathutil.Frustum {
	return mathutil.FrustumFromMatrix(c.ViewProj)
}
