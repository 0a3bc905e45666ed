package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 32, a.Dot(b), 1e-6)

	cross := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	assert.Equal(t, Vec3{0, 0, 1}, cross)
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	assert.InDelta(t, 1, n.Len(), 1e-6)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestMat4MulPoint(t *testing.T) {
	m := Mat4Identity()
	m[3], m[7], m[11] = 10, 20, 30 // translation
	p := m.MulPoint(Vec3{1, 2, 3})
	assert.Equal(t, Vec3{11, 22, 33}, p)
}

func TestMat4Mul(t *testing.T) {
	a := Mat4Identity()
	a[3] = 5
	b := Mat4Identity()
	b[7] = -2

	ab := Mat4Mul(a, b)
	p := ab.MulPoint(Vec3{0, 0, 0})
	assert.Equal(t, Vec3{5, -2, 0}, p)

	assert.True(t, Mat4Identity().IsIdentity())
	assert.False(t, a.IsIdentity())
}

func TestAABBExtendUnion(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.IsEmpty())

	b = b.Extend(Vec3{1, 2, 3}).Extend(Vec3{-1, 5, 0})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, Vec3{-1, 2, 0}, b.Min)
	assert.Equal(t, Vec3{1, 5, 3}, b.Max)

	other := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{9, 9, 9}}
	u := b.Union(other)
	assert.Equal(t, Vec3{-1, 0, 0}, u.Min)
	assert.Equal(t, Vec3{9, 9, 9}, u.Max)

	assert.Equal(t, other, EmptyAABB().Union(other))
	assert.Equal(t, other, other.Union(EmptyAABB()))
}

func TestAABBLongestAxis(t *testing.T) {
	b := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 5, 2}}
	assert.Equal(t, 1, b.LongestAxis())
	assert.Equal(t, Vec3{0.5, 2.5, 1}, b.Center())
}

func TestAABBCorners(t *testing.T) {
	b := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	corners := b.Corners()
	seen := make(map[Vec3]bool)
	for _, c := range corners {
		seen[c] = true
		for k := 0; k < 3; k++ {
			assert.True(t, c[k] == 0 || c[k] == 1)
		}
	}
	assert.Len(t, seen, 8)
}

func TestFrustumFromCameraMatrix(t *testing.T) {
	// Camera at origin looking down -Z.
	view := LookAt(Vec3{0, 0, 0}, Vec3{0, 0, -1}, Vec3{0, 1, 0})
	proj := Perspective(1.0, 1.0, 0.1, 100)
	f := FrustumFromMatrix(Mat4Mul(proj, view))

	for _, pl := range f.Planes {
		assert.InDelta(t, 1, pl.Normal.Len(), 1e-5)
	}

	inFront := AABB{Min: Vec3{-1, -1, -11}, Max: Vec3{1, 1, -9}}
	assert.True(t, f.IntersectsAABB(inFront))

	behind := AABB{Min: Vec3{-1, -1, 9}, Max: Vec3{1, 1, 11}}
	assert.False(t, f.IntersectsAABB(behind))

	tooFar := AABB{Min: Vec3{-1, -1, -300}, Max: Vec3{1, 1, -200}}
	assert.False(t, f.IntersectsAABB(tooFar))

	farLeft := AABB{Min: Vec3{-500, -1, -11}, Max: Vec3{-400, 1, -9}}
	assert.False(t, f.IntersectsAABB(farLeft))
}

func TestFrustumConservativeStraddle(t *testing.T) {
	view := LookAt(Vec3{0, 0, 0}, Vec3{0, 0, -1}, Vec3{0, 1, 0})
	proj := Perspective(1.0, 1.0, 0.1, 100)
	f := FrustumFromMatrix(Mat4Mul(proj, view))

	// A box straddling the left plane has corners on both sides and must
	// be treated as visible.
	straddle := AABB{Min: Vec3{-50, -1, -11}, Max: Vec3{0, 1, -9}}
	assert.True(t, f.IntersectsAABB(straddle))
}

func TestLookAtMapsTargetToViewAxis(t *testing.T) {
	view := LookAt(Vec3{0, 0, 10}, Vec3{0, 0, 0}, Vec3{0, 1, 0})
	p := view.MulPoint(Vec3{0, 0, 0})
	// The target lies straight ahead: on the -Z view axis.
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, -10, p[2], 1e-5)
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(1.0, 1.0, 1, 100)

	near, wn := proj.MulPointW(Vec3{0, 0, -1})
	require.Greater(t, wn, float32(0))
	assert.InDelta(t, -1, near[2]/wn, 1e-5)

	far, wf := proj.MulPointW(Vec3{0, 0, -100})
	assert.InDelta(t, 1, far[2]/wf, 1e-4)
}
