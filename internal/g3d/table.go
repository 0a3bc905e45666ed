package g3d

import (
	"encoding/binary"
	"log/slog"
	"math"

	"vim-scene-renderer/internal/bfast"
)

// Attribute pairs a parsed descriptor with the raw bytes of its buffer.
type Attribute struct {
	Descriptor Descriptor
	Data       []byte
}

// Components returns the number of scalar components in the buffer.
func (a Attribute) Components() int {
	return len(a.Data) / a.Descriptor.DataType.Size()
}

// Elements returns the number of arity-sized elements in the buffer.
func (a Attribute) Elements() int {
	return a.Components() / a.Descriptor.Arity
}

// Table holds every attribute decoded from a geometry container.
type Table struct {
	attrs []Attribute
}

// FromContainer builds a table from a parsed container, skipping buffers
// whose names are not valid descriptors.
func FromContainer(c *bfast.Container) *Table {
	t := &Table{}
	for _, b := range c.Buffers {
		d, ok := ParseDescriptor(b.Name)
		if !ok {
			slog.Debug("g3d: skipping non-attribute buffer", "name", b.Name)
			continue
		}
		t.attrs = append(t.attrs, Attribute{Descriptor: d, Data: b.Data})
	}
	return t
}

// Add appends an attribute. Used by builders of synthetic tables.
func (t *Table) Add(d Descriptor, data []byte) {
	t.attrs = append(t.attrs, Attribute{Descriptor: d, Data: data})
}

// Len returns the number of decoded attributes.
func (t *Table) Len() int {
	return len(t.attrs)
}

// All returns every decoded attribute in container order.
func (t *Table) All() []Attribute {
	return t.attrs
}

// Attributes returns every attribute matching the association and semantic,
// in container order. Zero matches is an empty slice.
func (t *Table) Attributes(assoc Association, sem Semantic) []Attribute {
	var out []Attribute
	for _, a := range t.attrs {
		if a.Descriptor.Association == assoc && a.Descriptor.Semantic == sem {
			out = append(out, a)
		}
	}
	return out
}

// Float32 concatenates all matching attributes and reinterprets their raw
// bytes as little-endian float32 values.
func (t *Table) Float32(assoc Association, sem Semantic) []float32 {
	var out []float32
	for _, a := range t.Attributes(assoc, sem) {
		n := len(a.Data) / 4
		for i := 0; i < n; i++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(a.Data[i*4:])))
		}
	}
	return out
}

// Int32 concatenates all matching attributes and reinterprets their raw
// bytes as little-endian int32 values.
func (t *Table) Int32(assoc Association, sem Semantic) []int32 {
	var out []int32
	for _, a := range t.Attributes(assoc, sem) {
		n := len(a.Data) / 4
		for i := 0; i < n; i++ {
			out = append(out, int32(binary.LittleEndian.Uint32(a.Data[i*4:])))
		}
	}
	return out
}

// UInt16 concatenates all matching attributes and reinterprets their raw
// bytes as little-endian uint16 values.
func (t *Table) UInt16(assoc Association, sem Semantic) []uint16 {
	var out []uint16
	for _, a := range t.Attributes(assoc, sem) {
		n := len(a.Data) / 2
		for i := 0; i < n; i++ {
			out = append(out, binary.LittleEndian.Uint16(a.Data[i*2:]))
		}
	}
	return out
}
