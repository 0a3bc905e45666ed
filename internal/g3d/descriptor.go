// Package g3d decodes the columnar geometry-attribute encoding carried inside
// a BFAST container. Each buffer name is a descriptor string of the form
//
//	g3d:<association>:<semantic>:<index>:<dataType>:<arity>
//
// naming what the buffer's bytes mean and how they are indexed.
package g3d

import (
	"strconv"
	"strings"
)

// Association names which part of the mesh topology an attribute is
// indexed by.
type Association string

const (
	AssocVertex      Association = "vertex"
	AssocFace        Association = "face"
	AssocCorner      Association = "corner"
	AssocEdge        Association = "edge"
	AssocInstance    Association = "instance"
	AssocMesh        Association = "mesh"
	AssocSubmesh     Association = "submesh"
	AssocShape       Association = "shape"
	AssocMaterial    Association = "material"
	AssocSubgeometry Association = "subgeometry"
	AssocShapeVertex Association = "shapevertex"
	AssocAll         Association = "all"
	AssocNone        Association = "none"
)

var associations = map[Association]bool{
	AssocVertex: true, AssocFace: true, AssocCorner: true, AssocEdge: true,
	AssocInstance: true, AssocMesh: true, AssocSubmesh: true, AssocShape: true,
	AssocMaterial: true, AssocSubgeometry: true, AssocShapeVertex: true,
	AssocAll: true, AssocNone: true,
}

// Semantic names the role of an attribute's data.
type Semantic string

const (
	SemPosition      Semantic = "position"
	SemIndex         Semantic = "index"
	SemNormal        Semantic = "normal"
	SemTangent       Semantic = "tangent"
	SemUV            Semantic = "uv"
	SemColor         Semantic = "color"
	SemTransform     Semantic = "transform"
	SemFlags         Semantic = "flags"
	SemParent        Semantic = "parent"
	SemMesh          Semantic = "mesh"
	SemMaterial      Semantic = "material"
	SemGlossiness    Semantic = "glossiness"
	SemSmoothness    Semantic = "smoothness"
	SemSubmeshOffset Semantic = "submeshoffset"
	SemIndexOffset   Semantic = "indexoffset"
	SemVertexOffset  Semantic = "vertexoffset"
	SemWidth         Semantic = "width"
)

var semantics = map[Semantic]bool{
	SemPosition: true, SemIndex: true, SemNormal: true, SemTangent: true,
	SemUV: true, SemColor: true, SemTransform: true, SemFlags: true,
	SemParent: true, SemMesh: true, SemMaterial: true, SemGlossiness: true,
	SemSmoothness: true, SemSubmeshOffset: true, SemIndexOffset: true,
	SemVertexOffset: true, SemWidth: true,
}

// DataType names the element type of an attribute's raw bytes.
type DataType string

const (
	Int8    DataType = "int8"
	Int16   DataType = "int16"
	Int32   DataType = "int32"
	Int64   DataType = "int64"
	UInt8   DataType = "uint8"
	UInt16  DataType = "uint16"
	UInt32  DataType = "uint32"
	UInt64  DataType = "uint64"
	Float32 DataType = "float32"
	Float64 DataType = "float64"
)

// dataTypeSizes maps each data type to its fixed byte size.
var dataTypeSizes = map[DataType]int{
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	UInt8: 1, UInt16: 2, UInt32: 4, UInt64: 8,
	Float32: 4, Float64: 8,
}

// Size returns the byte size of one element, or 0 for an unknown type.
func (d DataType) Size() int {
	return dataTypeSizes[d]
}

// Descriptor is a parsed attribute name.
type Descriptor struct {
	Association Association
	Semantic    Semantic
	Index       int
	DataType    DataType
	Arity       int
}

// ParseDescriptor parses a six-field descriptor string. Any field outside
// its vocabulary yields ok == false; callers skip such buffers (containers
// routinely carry auxiliary buffers that are not geometry attributes).
func ParseDescriptor(name string) (Descriptor, bool) {
	fields := strings.Split(name, ":")
	if len(fields) != 6 || fields[0] != "g3d" {
		return Descriptor{}, false
	}

	assoc := Association(fields[1])
	sem := Semantic(fields[2])
	dt := DataType(fields[4])
	if !associations[assoc] || !semantics[sem] || dataTypeSizes[dt] == 0 {
		return Descriptor{}, false
	}

	index, err := strconv.Atoi(fields[3])
	if err != nil || index < 0 {
		return Descriptor{}, false
	}
	arity, err := strconv.Atoi(fields[5])
	if err != nil || arity <= 0 {
		return Descriptor{}, false
	}

	return Descriptor{
		Association: assoc,
		Semantic:    sem,
		Index:       index,
		DataType:    dt,
		Arity:       arity,
	}, true
}

// String reassembles the canonical descriptor form.
func (d Descriptor) String() string {
	return "g3d:" + string(d.Association) + ":" + string(d.Semantic) + ":" +
		strconv.Itoa(d.Index) + ":" + string(d.DataType) + ":" + strconv.Itoa(d.Arity)
}
