package scene

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"vim-scene-renderer/internal/g3d"
	"vim-scene-renderer/internal/mathutil"
)

// Options tunes a build. Zero values pick defaults.
type Options struct {
	// Workers bounds the goroutines used for per-instance work.
	// Defaults to NumCPU.
	Workers int
}

// Build runs the ordered geometry pipeline over a decoded attribute table
// and returns a fully linked model. Stages run strictly in sequence; each
// consumes arrays finalized by the previous one. The context is checked at
// every stage boundary and inside per-instance loops, so a canceled build
// returns promptly and never exposes a partial model.
func Build(ctx context.Context, tbl *g3d.Table, opts Options) (*Model, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	b := &builder{ctx: ctx, tbl: tbl, workers: workers}
	stages := []func() error{
		b.positions,
		b.indices,
		b.normals,
		b.materials,
		b.submeshes,
		b.meshes,
		b.transparency,
		b.instances,
		b.group,
		b.bounds,
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stage(); err != nil {
			return nil, err
		}
	}
	return b.finish(), nil
}

type builder struct {
	ctx     context.Context
	tbl     *g3d.Table
	workers int

	m Model

	// per original identity, None for instances without geometry
	instancedMeshOf []Ref
	meshInstances   [][]int32
	original        []Instance // all decoded instances, identity order
	initialStates   []State
}

// rangesFromOffsets turns a non-decreasing offsets array into [start, end)
// pairs: element i covers [offsets[i], offsets[i+1]) and the last element
// runs to total.
func rangesFromOffsets(stage string, offsets []int32, total int) ([][2]int, error) {
	out := make([][2]int, len(offsets))
	for i, off := range offsets {
		if off < 0 || int(off) > total {
			return nil, validationf(stage, "offset %d out of range [0, %d]", off, total)
		}
		end := total
		if i+1 < len(offsets) {
			end = int(offsets[i+1])
		}
		if end < int(off) {
			return nil, validationf(stage, "offsets decrease at %d: %d > %d", i, off, end)
		}
		out[i] = [2]int{int(off), end}
	}
	return out, nil
}

func (b *builder) positions() error {
	b.m.Positions = b.tbl.Float32(g3d.AssocVertex, g3d.SemPosition)
	if len(b.m.Positions) == 0 {
		return validationf("positions", "no vertex positions")
	}
	return nil
}

func (b *builder) indices() error {
	raw := b.tbl.Int32(g3d.AssocCorner, g3d.SemIndex)
	vertexCount := int32(len(b.m.Positions) / 3)
	b.m.Indices = make([]uint32, len(raw))
	for i, v := range raw {
		if v < 0 || v >= vertexCount {
			return validationf("indices", "index %d out of range for %d vertices", v, vertexCount)
		}
		b.m.Indices[i] = uint32(v)
	}
	return nil
}

// normals uses the supplied per-vertex normals when present, and otherwise
// accumulates per-triangle face normals into each referenced vertex and
// normalizes the sums. Degenerate accumulations stay the zero vector.
func (b *builder) normals() error {
	supplied := b.tbl.Float32(g3d.AssocVertex, g3d.SemNormal)
	if len(supplied) == len(b.m.Positions) && len(supplied) > 0 {
		b.m.Normals = supplied
		return nil
	}
	if len(supplied) > 0 {
		slog.Warn("scene: supplied normals ignored",
			"normals", len(supplied), "positions", len(b.m.Positions))
	}

	normals := make([]float32, len(b.m.Positions))
	pos := func(i uint32) mathutil.Vec3 {
		return mathutil.Vec3{b.m.Positions[i*3], b.m.Positions[i*3+1], b.m.Positions[i*3+2]}
	}
	for t := 0; t+2 < len(b.m.Indices); t += 3 {
		ia, ib, ic := b.m.Indices[t], b.m.Indices[t+1], b.m.Indices[t+2]
		a := pos(ia)
		n := pos(ib).Sub(a).Cross(pos(ic).Sub(a))
		for _, vi := range []uint32{ia, ib, ic} {
			normals[vi*3] += n[0]
			normals[vi*3+1] += n[1]
			normals[vi*3+2] += n[2]
		}
	}
	for v := 0; v*3 < len(normals); v++ {
		n := mathutil.Vec3{normals[v*3], normals[v*3+1], normals[v*3+2]}.Normalize()
		normals[v*3], normals[v*3+1], normals[v*3+2] = n[0], n[1], n[2]
	}
	b.m.Normals = normals
	return nil
}

// materials zips the color, glossiness and smoothness attribute arrays
// one-to-one, then appends the default material so unassigned submeshes
// have something to resolve to.
func (b *builder) materials() error {
	colors := b.tbl.Float32(g3d.AssocMaterial, g3d.SemColor)
	gloss := b.tbl.Float32(g3d.AssocMaterial, g3d.SemGlossiness)
	smooth := b.tbl.Float32(g3d.AssocMaterial, g3d.SemSmoothness)

	count := len(colors) / 4
	if len(colors)%4 != 0 {
		return validationf("materials", "color array length %d not divisible by 4", len(colors))
	}
	if len(gloss) != count || len(smooth) != count {
		return validationf("materials",
			"co-indexed arrays disagree: %d colors, %d glossiness, %d smoothness",
			count, len(gloss), len(smooth))
	}

	b.m.Materials = make([]Material, count, count+1)
	for i := range b.m.Materials {
		b.m.Materials[i] = Material{
			Glossiness: gloss[i],
			Smoothness: smooth[i],
			RGBA:       [4]float32{colors[i*4], colors[i*4+1], colors[i*4+2], colors[i*4+3]},
		}
	}
	b.m.Materials = append(b.m.Materials, DefaultMaterial)
	return nil
}

func (b *builder) submeshes() error {
	offsets := b.tbl.Int32(g3d.AssocSubmesh, g3d.SemIndexOffset)
	mats := b.tbl.Int32(g3d.AssocSubmesh, g3d.SemMaterial)

	ranges, err := rangesFromOffsets("submeshes", offsets, len(b.m.Indices))
	if err != nil {
		return err
	}
	if len(mats) > 0 && len(mats) != len(offsets) {
		return validationf("submeshes",
			"co-indexed arrays disagree: %d offsets, %d materials", len(offsets), len(mats))
	}

	defaultMat := len(b.m.Materials) - 1
	b.m.Submeshes = make([]Submesh, len(ranges))
	for i, r := range ranges {
		mat := defaultMat
		if len(mats) > 0 && mats[i] >= 0 {
			if int(mats[i]) >= defaultMat {
				return validationf("submeshes",
					"material index %d out of range for %d materials", mats[i], defaultMat)
			}
			mat = int(mats[i])
		}
		b.m.Submeshes[i] = Submesh{IndexStart: r[0], IndexEnd: r[1], Material: mat}
	}
	return nil
}

func (b *builder) meshes() error {
	offsets := b.tbl.Int32(g3d.AssocMesh, g3d.SemSubmeshOffset)
	ranges, err := rangesFromOffsets("meshes", offsets, len(b.m.Submeshes))
	if err != nil {
		return err
	}
	b.m.Meshes = make([]Mesh, len(ranges))
	for i, r := range ranges {
		b.m.Meshes[i] = Mesh{SubmeshStart: r[0], SubmeshEnd: r[1]}
	}
	return nil
}

// transparency marks a mesh transparent when the minimum alpha across its
// submeshes' materials is below 1. A mesh with no submeshes is
// conservatively transparent.
func (b *builder) transparency() error {
	for i := range b.m.Meshes {
		mesh := &b.m.Meshes[i]
		if mesh.SubmeshCount() == 0 {
			mesh.Transparent = true
			continue
		}
		minAlpha := float32(1)
		for s := mesh.SubmeshStart; s < mesh.SubmeshEnd; s++ {
			a := b.m.Materials[b.m.Submeshes[s].Material].RGBA[3]
			if a < minAlpha {
				minAlpha = a
			}
		}
		mesh.Transparent = minAlpha < 1
	}
	return nil
}

// instances zips the transform, flags, parent and mesh attribute arrays.
// Transform and mesh are required per instance; flags and parent fall back
// to defaults when absent. Instances without geometry are decoded but never
// enter the renderable set.
func (b *builder) instances() error {
	transforms := b.tbl.Float32(g3d.AssocInstance, g3d.SemTransform)
	meshRefs := b.tbl.Int32(g3d.AssocInstance, g3d.SemMesh)
	flags := b.tbl.UInt16(g3d.AssocInstance, g3d.SemFlags)
	parents := b.tbl.Int32(g3d.AssocInstance, g3d.SemParent)

	if len(transforms)%16 != 0 {
		return validationf("instances", "transform array length %d not divisible by 16", len(transforms))
	}
	count := len(transforms) / 16
	if len(meshRefs) != count {
		return validationf("instances",
			"co-indexed arrays disagree: %d transforms, %d mesh indices", count, len(meshRefs))
	}
	if len(flags) > 0 && len(flags) != count {
		return validationf("instances",
			"co-indexed arrays disagree: %d transforms, %d flags", count, len(flags))
	}
	if len(parents) > 0 && len(parents) != count {
		return validationf("instances",
			"co-indexed arrays disagree: %d transforms, %d parents", count, len(parents))
	}

	b.original = make([]Instance, count)
	b.initialStates = make([]State, count)
	for i := 0; i < count; i++ {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		inst := Instance{Index: int32(i), Parent: None, Mesh: None}
		copy(inst.Matrix[:], transforms[i*16:(i+1)*16])
		if len(flags) > 0 {
			inst.Flags = flags[i]
		}
		if len(parents) > 0 && parents[i] >= 0 {
			if int(parents[i]) >= count {
				return validationf("instances",
					"parent index %d out of range for %d instances", parents[i], count)
			}
			inst.Parent = Ref(parents[i])
		}
		if meshRefs[i] >= 0 {
			if int(meshRefs[i]) >= len(b.m.Meshes) {
				return validationf("instances",
					"mesh index %d out of range for %d meshes", meshRefs[i], len(b.m.Meshes))
			}
			inst.Mesh = Ref(meshRefs[i])
			inst.Transparent = b.m.Meshes[meshRefs[i]].Transparent
		}
		if inst.Flags&flagHidden != 0 {
			b.initialStates[i] = StateHidden
		}
		b.original[i] = inst
	}
	return nil
}

// group reorders renderable instances by (transparent, mesh) so every
// instanced mesh is one contiguous run, opaque runs before transparent ones
// (opaque geometry draws first), and emits one InstancedMesh per run.
func (b *builder) group() error {
	renderable := make([]Instance, 0, len(b.original))
	for _, inst := range b.original {
		if inst.Mesh.Valid() {
			renderable = append(renderable, inst)
		}
	}
	sort.SliceStable(renderable, func(i, j int) bool {
		a, c := renderable[i], renderable[j]
		if a.Transparent != c.Transparent {
			return !a.Transparent
		}
		return a.Mesh < c.Mesh
	})

	b.instancedMeshOf = make([]Ref, len(b.original))
	for i := range b.instancedMeshOf {
		b.instancedMeshOf[i] = None
	}
	b.meshInstances = make([][]int32, len(b.m.Meshes))
	b.m.Instances = renderable
	b.m.InstanceOffsets = make([]int32, len(renderable))

	for pos, inst := range renderable {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		b.m.InstanceOffsets[pos] = inst.Index
		mesh := inst.Mesh.Index()
		n := len(b.m.InstancedMeshes)
		if n == 0 || b.m.InstancedMeshes[n-1].Mesh != mesh {
			b.m.InstancedMeshes = append(b.m.InstancedMeshes, InstancedMesh{
				Mesh:         mesh,
				Transparent:  inst.Transparent,
				BaseInstance: pos,
			})
			n++
		}
		b.m.InstancedMeshes[n-1].InstanceCount++
		b.instancedMeshOf[inst.Index] = Ref(n - 1)
		b.meshInstances[mesh] = append(b.meshInstances[mesh], inst.Index)
	}
	return nil
}

// bounds computes each renderable instance's world-space box by transforming
// every vertex its mesh references. Instances whose mesh references no
// vertices get no box and stay out of the spatial index. Per-instance work
// runs on a worker pool; min/max reduction is order-independent.
func (b *builder) bounds() error {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if b.ctx.Err() != nil {
					continue // drain
				}
				b.instanceBounds(&b.m.Instances[i])
			}
		}()
	}
	for i := range b.m.Instances {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := b.ctx.Err(); err != nil {
		return err
	}

	scene := mathutil.EmptyAABB()
	for i := range b.m.Instances {
		if b.m.Instances[i].HasBounds {
			scene = scene.Union(b.m.Instances[i].Bounds)
		}
	}
	b.m.Bounds = scene
	return nil
}

func (b *builder) instanceBounds(inst *Instance) {
	mesh := b.m.Meshes[inst.Mesh.Index()]
	box := mathutil.EmptyAABB()
	seen := false
	for s := mesh.SubmeshStart; s < mesh.SubmeshEnd; s++ {
		sub := b.m.Submeshes[s]
		for i := sub.IndexStart; i < sub.IndexEnd; i++ {
			vi := b.m.Indices[i]
			p := mathutil.Vec3{
				b.m.Positions[vi*3],
				b.m.Positions[vi*3+1],
				b.m.Positions[vi*3+2],
			}
			box = box.Extend(inst.Matrix.MulPoint(p))
			seen = true
		}
	}
	if seen {
		inst.Bounds = box
		inst.HasBounds = true
	}
}

func (b *builder) finish() *Model {
	b.m.instancedMeshOf = b.instancedMeshOf
	b.m.meshInstances = b.meshInstances
	b.m.states = make([]instanceState, len(b.original))
	for i, s := range b.initialStates {
		b.m.states[i] = instanceState{State: s, ColorOverride: None}
	}
	return &b.m
}
