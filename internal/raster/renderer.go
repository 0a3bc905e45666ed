// Package raster renders scene snapshots on the CPU: z-buffered triangle
// rasterization with flat per-face lighting, driven by the model's batched
// draw order and the spatial index's visibility query.
package raster

import (
	"image"

	"vim-scene-renderer/internal/bvh"
	"vim-scene-renderer/internal/camera"
	"vim-scene-renderer/internal/mathutil"
	"vim-scene-renderer/internal/scene"
)

// Options controls one snapshot.
type Options struct {
	Size        int
	Supersample int
	// Palette resolves instance color overrides. An override index outside
	// the palette falls back to the material color.
	Palette [][4]float32
}

// selectionTint is mixed into selected instances' base color.
var selectionTint = [3]float32{1.0, 0.78, 0.25}

// RenderScene draws the model from the given camera into an NRGBA image of
// Size*Supersample square pixels. When tree is non-nil, instanced meshes
// outside the camera frustum are culled before any triangle is touched;
// fully hidden groups are skipped either way, and so are individual hidden
// instances. Instances draw in the model's batched order: opaque groups
// first, then transparent ones blended over them.
func RenderScene(m *scene.Model, tree *bvh.Tree, cam camera.Camera, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = 512
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	renderSize := opts.Size * opts.Supersample
	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig()

	visible := visibleSet(m, tree, cam)

	for im, group := range m.InstancedMeshes {
		if !visible[im] {
			continue
		}
		mesh := m.Meshes[group.Mesh]
		for pos := group.BaseInstance; pos < group.BaseInstance+group.InstanceCount; pos++ {
			id := m.InstanceOffsets[pos]
			if m.State(id) == scene.StateHidden {
				continue
			}
			drawInstance(fb, m, mesh, &m.Instances[pos], id, cam, &lc, opts.Palette, renderSize)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.Color)
	return img
}

// visibleSet reduces the frustum query by the groups whose instances are
// all hidden.
func visibleSet(m *scene.Model, tree *bvh.Tree, cam camera.Camera) map[int]bool {
	visible := make(map[int]bool, len(m.InstancedMeshes))
	if tree != nil {
		frustum := cam.Frustum()
		for _, im := range tree.Query(&frustum, func(id int32) int32 {
			return int32(m.InstancedMeshOf(id))
		}) {
			visible[int(im)] = true
		}
	} else {
		for im := range m.InstancedMeshes {
			visible[im] = true
		}
	}
	for _, im := range m.HiddenInstancedMeshes() {
		delete(visible, im)
	}
	return visible
}

func drawInstance(
	fb *FrameBuffer,
	m *scene.Model,
	mesh scene.Mesh,
	inst *scene.Instance,
	id int32,
	cam camera.Camera,
	lc *LightConfig,
	palette [][4]float32,
	size int,
) {
	selected := m.State(id) == scene.StateSelected
	override := m.ColorOverride(id)

	for s := mesh.SubmeshStart; s < mesh.SubmeshEnd; s++ {
		sub := m.Submeshes[s]
		rgba := m.Materials[sub.Material].RGBA
		if override.Valid() && override.Index() < len(palette) {
			rgba = palette[override.Index()]
		}
		gloss := m.Materials[sub.Material].Glossiness
		smooth := m.Materials[sub.Material].Smoothness

		for i := sub.IndexStart; i+3 <= sub.IndexEnd; i += 3 {
			var world [3]mathutil.Vec3
			var sx, sy, sz [3]float32
			ok := true
			for k := 0; k < 3; k++ {
				vi := m.Indices[i+k]
				p := mathutil.Vec3{
					m.Positions[vi*3],
					m.Positions[vi*3+1],
					m.Positions[vi*3+2],
				}
				world[k] = inst.Matrix.MulPoint(p)
				clip, w := cam.ViewProj.MulPointW(world[k])
				if w < 1e-6 {
					ok = false // behind the camera, drop the triangle
					break
				}
				sx[k] = (clip[0]/w + 1) / 2 * float32(size)
				sy[k] = (1 - clip[1]/w) / 2 * float32(size)
				sz[k] = clip[2] / w
			}
			if !ok {
				continue
			}

			normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0])).Normalize()
			shade := lc.Shade(normal, gloss, smooth)

			cr, cg, cb := rgba[0], rgba[1], rgba[2]
			if selected {
				cr = (cr + selectionTint[0]) / 2
				cg = (cg + selectionTint[1]) / 2
				cb = (cb + selectionTint[2]) / 2
			}
			RasterizeTriangle(fb, sx, sy, sz,
				shadeByte(cr, shade), shadeByte(cg, shade), shadeByte(cb, shade),
				alphaByte(rgba[3]))
		}
	}
}

func shadeByte(c, shade float32) uint8 {
	v := c * shade * 255
	if v > 255 {
		v = 255
	}
	if v < 0 {
		v = 0
	}
	return uint8(v)
}

func alphaByte(a float32) uint8 {
	if a >= 1 {
		return 255
	}
	if a < 0 {
		return 0
	}
	return uint8(a * 255)
}
