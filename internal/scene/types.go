// Package scene reconstructs a linked scene from decoded geometry
// attributes: flat vertex data, materials, meshes, submeshes, per-instance
// transforms and state, and instance-to-mesh groupings for batched drawing.
package scene

import (
	"vim-scene-renderer/internal/mathutil"
)

// Ref is an index into one of the model's flat arrays. The binary format
// encodes "none" as -1; that sentinel stays at the decode boundary and
// everything above it checks Valid.
type Ref int32

// None marks an unassigned reference.
const None Ref = -1

func (r Ref) Valid() bool { return r >= 0 }

// Index returns the array position. Only meaningful when Valid.
func (r Ref) Index() int { return int(r) }

// Material holds the shading inputs of one material. All channels are in
// [0, 1].
type Material struct {
	Glossiness float32
	Smoothness float32
	RGBA       [4]float32
}

// DefaultMaterial is substituted for submeshes without an assigned
// material: opaque white.
var DefaultMaterial = Material{
	Glossiness: 0.5,
	Smoothness: 0.5,
	RGBA:       [4]float32{1, 1, 1, 1},
}

// Submesh is a contiguous run of triangle indices sharing one material.
// Material always resolves; unassigned source values point at the default
// material appended to the material array.
type Submesh struct {
	IndexStart int
	IndexEnd   int
	Material   int
}

// Mesh is a contiguous range of submeshes. A mesh with an empty range is a
// placeholder with no geometry.
type Mesh struct {
	SubmeshStart int
	SubmeshEnd   int
	Transparent  bool
}

// SubmeshCount returns the number of submeshes in the mesh.
func (m Mesh) SubmeshCount() int { return m.SubmeshEnd - m.SubmeshStart }

// Instance is one placement of a mesh in the scene. Index is the stable
// identity from the source file, independent of array position; the
// renderable instance array is globally reordered for batching.
type Instance struct {
	Index       int32
	Matrix      mathutil.Mat4
	Flags       uint16
	Parent      Ref
	Mesh        Ref
	Transparent bool
	Bounds      mathutil.AABB
	HasBounds   bool
}

// flagHidden marks an instance initially hidden (bit 0 of the flags field).
const flagHidden uint16 = 1

// State is the interaction state of one instance.
type State int32

const (
	StateDefault State = iota
	StateHidden
	StateSelected
	StateIsolated
)

// InstancedMesh is a contiguous run of the reordered instance array holding
// every instance of one mesh: the unit one batched draw call covers.
type InstancedMesh struct {
	Mesh          int
	Transparent   bool
	InstanceCount int
	BaseInstance  int
}
