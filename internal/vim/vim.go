// Package vim loads .vim model files: the outer BFAST container, the nested
// geometry container, the linked scene model, and the spatial index, in one
// cancellable call.
package vim

import (
	"context"
	"fmt"
	"log/slog"

	"vim-scene-renderer/internal/bfast"
	"vim-scene-renderer/internal/bvh"
	"vim-scene-renderer/internal/g3d"
	"vim-scene-renderer/internal/scene"
)

// GeometryBuffer is the outer-container buffer holding the nested geometry
// container.
const GeometryBuffer = "geometry"

// DefaultMmapThreshold is the file size above which the container is
// memory-mapped instead of read into the heap.
const DefaultMmapThreshold int64 = 64 << 20

// Options tunes a load. Zero values pick defaults.
type Options struct {
	MmapThreshold int64
	Workers       int
}

// Document is a fully loaded model file.
type Document struct {
	Container *bfast.Container
	Model     *scene.Model
	Tree      *bvh.Tree
}

// Close releases the container's backing mapping. The document's geometry
// arrays alias it and must not be used afterwards.
func (d *Document) Close() error {
	return d.Container.Close()
}

// Load reads and links a .vim file. The context cancels the geometry build
// between stages and inside per-instance loops; a canceled load returns
// ctx.Err() and releases the mapping.
func Load(ctx context.Context, path string, opts Options) (*Document, error) {
	threshold := opts.MmapThreshold
	if threshold <= 0 {
		threshold = DefaultMmapThreshold
	}
	c, err := bfast.ReadFile(path, threshold)
	if err != nil {
		return nil, err
	}
	doc, err := link(ctx, c, opts)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return doc, nil
}

// LoadBytes links a model from an in-memory block.
func LoadBytes(ctx context.Context, data []byte, opts Options) (*Document, error) {
	c, err := bfast.Read(data)
	if err != nil {
		return nil, err
	}
	return link(ctx, c, opts)
}

func link(ctx context.Context, c *bfast.Container, opts Options) (*Document, error) {
	geo, err := c.Nested(GeometryBuffer)
	if err != nil {
		return nil, fmt.Errorf("vim: geometry container: %w", err)
	}

	tbl := g3d.FromContainer(geo)
	model, err := scene.Build(ctx, tbl, scene.Options{Workers: opts.Workers})
	if err != nil {
		return nil, err
	}

	items := make([]bvh.Item, 0, len(model.Instances))
	for i := range model.Instances {
		inst := &model.Instances[i]
		if inst.HasBounds {
			items = append(items, bvh.Item{ID: inst.Index, Box: inst.Bounds})
		}
	}
	tree := bvh.Build(items)

	slog.Debug("vim: model linked",
		"vertices", len(model.Positions)/3,
		"triangles", len(model.Indices)/3,
		"meshes", len(model.Meshes),
		"instances", len(model.Instances),
		"instancedMeshes", len(model.InstancedMeshes),
		"bvhItems", len(items))

	return &Document{Container: c, Model: model, Tree: tree}, nil
}
