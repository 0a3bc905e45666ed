package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"vim-scene-renderer/internal/bfast"
	"vim-scene-renderer/internal/g3d"
	"vim-scene-renderer/internal/scene"
	"vim-scene-renderer/internal/vim"
)

func main() {
	deep := flag.Bool("deep", false, "Recurse into nested containers and link the scene")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-deep] file.vim ...")
		os.Exit(1)
	}

	exit := 0
	for _, arg := range flag.Args() {
		if err := inspect(arg, *deep); err != nil {
			fmt.Fprintf(os.Stderr, "Inspect error %s: %v\n", arg, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func inspect(path string, deep bool) error {
	c, err := bfast.ReadFile(path, vim.DefaultMmapThreshold)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("\n=== %s ===\n", path)
	printContainer(c, "")

	if !deep {
		return nil
	}

	geo, err := c.Nested(vim.GeometryBuffer)
	if err != nil {
		return err
	}
	fmt.Printf("--- %s (nested) ---\n", vim.GeometryBuffer)
	printContainer(geo, "  ")

	tbl := g3d.FromContainer(geo)
	fmt.Printf("--- attributes (%d) ---\n", tbl.Len())
	for _, a := range tbl.All() {
		fmt.Printf("  %-48s %d bytes, %d elements\n",
			a.Descriptor.String(), len(a.Data), a.Elements())
	}

	model, err := scene.Build(context.Background(), tbl, scene.Options{})
	if err != nil {
		return err
	}
	fmt.Println("--- scene ---")
	fmt.Printf("  vertices:        %d\n", len(model.Positions)/3)
	fmt.Printf("  triangles:       %d\n", len(model.Indices)/3)
	fmt.Printf("  materials:       %d (incl. default)\n", len(model.Materials))
	fmt.Printf("  submeshes:       %d\n", len(model.Submeshes))
	fmt.Printf("  meshes:          %d\n", len(model.Meshes))
	fmt.Printf("  instances:       %d renderable / %d total\n", len(model.Instances), model.InstanceCount())
	fmt.Printf("  instanced meshes: %d\n", len(model.InstancedMeshes))
	if !model.Bounds.IsEmpty() {
		fmt.Printf("  bounds:          min=%v max=%v\n", model.Bounds.Min, model.Bounds.Max)
	}
	return nil
}

func printContainer(c *bfast.Container, indent string) {
	h := c.Header
	fmt.Printf("%sheader: magic=%#x data=[%d,%d) arrays=%d\n",
		indent, h.Magic, h.DataStart, h.DataEnd, h.NumArrays)
	for _, b := range c.Buffers {
		fmt.Printf("%s  %-48s %d bytes\n", indent, b.Name, len(b.Data))
	}
}
