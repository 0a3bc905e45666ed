package scene

import (
	"sort"
	"sync"

	"vim-scene-renderer/internal/mathutil"
)

// Model is the fully linked scene produced by Build. The geometry arrays
// are read-only after the build; per-instance interaction state is the only
// mutable surface and is guarded so readers never observe a torn record.
type Model struct {
	// Positions holds flat vertex positions, stride 3.
	Positions []float32
	// Indices holds the triangle index array, 3 per triangle, vertex indexed.
	Indices []uint32
	// Normals holds one unit (or zero) normal per vertex, stride 3.
	Normals []float32

	Materials []Material
	Submeshes []Submesh
	Meshes    []Mesh

	// Instances is the renderable instance array, reordered so each
	// instanced mesh occupies one contiguous run; opaque runs precede
	// transparent ones.
	Instances []Instance
	// InstanceOffsets maps a position in Instances back to the instance's
	// original identity. This is the only way to find an instance by its
	// external id.
	InstanceOffsets []int32
	InstancedMeshes []InstancedMesh

	// Bounds is the world-space box of every bounded instance.
	Bounds mathutil.AABB

	instancedMeshOf []Ref     // per identity
	meshInstances   [][]int32 // per mesh, identities sharing it

	mu     sync.RWMutex
	states []instanceState
}

type instanceState struct {
	State         State
	ColorOverride Ref
}

// InstanceCount returns the number of decoded instances, including ones
// without geometry.
func (m *Model) InstanceCount() int {
	return len(m.states)
}

// InstancedMeshOf maps an instance identity to the instanced mesh it was
// grouped into, or None for instances without geometry.
func (m *Model) InstancedMeshOf(id int32) Ref {
	if id < 0 || int(id) >= len(m.instancedMeshOf) {
		return None
	}
	return m.instancedMeshOf[id]
}

// MeshInstances returns the identities of every instance sharing a mesh.
func (m *Model) MeshInstances(mesh int) []int32 {
	if mesh < 0 || mesh >= len(m.meshInstances) {
		return nil
	}
	return m.meshInstances[mesh]
}

// State returns the current interaction state of an instance identity.
func (m *Model) State(id int32) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || int(id) >= len(m.states) {
		return StateDefault
	}
	return m.states[id].State
}

// ColorOverride returns the instance's color override, or None.
func (m *Model) ColorOverride(id int32) Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || int(id) >= len(m.states) {
		return None
	}
	return m.states[id].ColorOverride
}

func (m *Model) setState(ids []int32, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if id < 0 || int(id) >= len(m.states) {
			continue
		}
		st := m.states[id]
		st.State = s
		m.states[id] = st
	}
}

// Select marks the given instances selected.
func (m *Model) Select(ids ...int32) { m.setState(ids, StateSelected) }

// Hide removes the given instances from the visible set.
func (m *Model) Hide(ids ...int32) { m.setState(ids, StateHidden) }

// Show returns the given instances to the default state.
func (m *Model) Show(ids ...int32) { m.setState(ids, StateDefault) }

// Isolate shows only the given instances; every other instance is hidden.
func (m *Model) Isolate(ids ...int32) {
	keep := make(map[int32]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.states {
		st := m.states[i]
		if keep[int32(i)] {
			st.State = StateIsolated
		} else {
			st.State = StateHidden
		}
		m.states[i] = st
	}
}

// Reset returns every instance to the default state and clears overrides.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.states {
		m.states[i] = instanceState{ColorOverride: None}
	}
}

// SetColorOverride recolors one instance; pass None to clear.
func (m *Model) SetColorOverride(id int32, color Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || int(id) >= len(m.states) {
		return
	}
	st := m.states[id]
	st.ColorOverride = color
	m.states[id] = st
}

// HiddenInstancedMeshes returns, sorted ascending, every instanced mesh
// whose instances are all currently hidden. These groups are skipped
// entirely when drawing.
func (m *Model) HiddenInstancedMeshes() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []int
	for i, im := range m.InstancedMeshes {
		allHidden := true
		for _, id := range m.meshInstances[im.Mesh] {
			if m.states[id].State != StateHidden {
				allHidden = false
				break
			}
		}
		if allHidden {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
