// Package bvh builds a bounding volume hierarchy over instance boxes and
// answers frustum visibility queries for the instanced-mesh groups the
// renderer batches by. The tree is built once per load and read-only
// afterwards; queries never mutate it.
package bvh

import (
	"sort"

	"vim-scene-renderer/internal/mathutil"
)

// LeafThreshold is the maximum number of items stored in a leaf.
const LeafThreshold = 8

// Item is one entry in the tree: an instance identity and its world box.
type Item struct {
	ID  int32
	Box mathutil.AABB
}

// Node is one binary tree node: an interior node has exactly two children,
// a leaf stores the contained instance identities.
type Node struct {
	Box   mathutil.AABB
	Left  *Node
	Right *Node
	Items []int32
}

// IsLeaf reports whether the node stores items directly.
func (n *Node) IsLeaf() bool { return n.Left == nil }

// Tree is the built hierarchy. An empty tree has a nil root.
type Tree struct {
	Root *Node
}

// Build constructs the tree by recursive median split: the union box's
// longest axis picks the sort key, the item list splits into equal halves.
// This yields a balanced tree by construction; build speed is preferred
// over query-optimal (SAH) partitioning since models hold thousands of
// instances, not billions.
func Build(items []Item) *Tree {
	if len(items) == 0 {
		return &Tree{}
	}
	buf := make([]Item, len(items))
	copy(buf, items)
	return &Tree{Root: build(buf)}
}

func build(items []Item) *Node {
	box := mathutil.EmptyAABB()
	for _, it := range items {
		box = box.Union(it.Box)
	}
	if len(items) <= LeafThreshold {
		ids := make([]int32, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		return &Node{Box: box, Items: ids}
	}

	axis := box.LongestAxis()
	sort.Slice(items, func(i, j int) bool {
		return items[i].Box.Center()[axis] < items[j].Box.Center()[axis]
	})
	mid := len(items) / 2
	return &Node{
		Box:   box,
		Left:  build(items[:mid]),
		Right: build(items[mid:]),
	}
}

// Query returns, sorted ascending, the instanced-mesh indices whose
// instances may intersect the frustum. instancedMeshOf maps an instance
// identity to its group; a negative return drops the instance. Whole
// subtrees are pruned when their box lies fully outside one frustum plane;
// the test is conservative, so the result can include groups just outside
// the frustum but never misses a visible one. Hidden-state filtering is the
// caller's job; the tree holds no instance state.
func (t *Tree) Query(f *mathutil.Frustum, instancedMeshOf func(id int32) int32) []int32 {
	if t.Root == nil {
		return nil
	}
	seen := make(map[int32]bool)
	t.Root.query(f, instancedMeshOf, seen)

	out := make([]int32, 0, len(seen))
	for im := range seen {
		out = append(out, im)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (n *Node) query(f *mathutil.Frustum, instancedMeshOf func(id int32) int32, seen map[int32]bool) {
	if !f.IntersectsAABB(n.Box) {
		return
	}
	if n.IsLeaf() {
		for _, id := range n.Items {
			if im := instancedMeshOf(id); im >= 0 {
				seen[im] = true
			}
		}
		return
	}
	n.Left.query(f, instancedMeshOf, seen)
	n.Right.query(f, instancedMeshOf, seen)
}
