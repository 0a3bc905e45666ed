package vim

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vim-scene-renderer/internal/bfast"
	"vim-scene-renderer/internal/scene"
)

func put64(buf []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:], v)
}

// encodeContainer lays out a BFAST block from parallel name/payload slices.
func encodeContainer(names []string, payloads [][]byte) []byte {
	nameTable := []byte{}
	for _, n := range names {
		nameTable = append(nameTable, n...)
		nameTable = append(nameTable, 0)
	}

	numArrays := uint64(1 + len(payloads))
	tableEnd := uint64(bfast.HeaderSize) + numArrays*bfast.RangeSize

	total := tableEnd + uint64(len(nameTable))
	for _, p := range payloads {
		total += uint64(len(p))
	}

	out := make([]byte, total)
	put64(out, 0, bfast.Magic)
	put64(out, 8, tableEnd)
	put64(out, 16, total)
	put64(out, 24, numArrays)

	cursor := tableEnd
	writeRange := func(i int, size uint64) {
		off := bfast.HeaderSize + i*bfast.RangeSize
		put64(out, off, cursor)
		put64(out, off+8, cursor+size)
		cursor += size
	}
	writeRange(0, uint64(len(nameTable)))
	copy(out[tableEnd:], nameTable)
	pos := tableEnd + uint64(len(nameTable))
	for i, p := range payloads {
		writeRange(i+1, uint64(len(p)))
		copy(out[pos:], p)
		pos += uint64(len(p))
	}
	return out
}

func f32b(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func i32b(vals ...int32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

// testVim builds a complete .vim block: one triangle, one material, one
// mesh, two instances (the second translated on X).
func testVim() []byte {
	identity := []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	translated := append([]float32(nil), identity...)
	translated[3] = 10

	geometry := encodeContainer(
		[]string{
			"g3d:vertex:position:0:float32:3",
			"g3d:corner:index:0:int32:1",
			"g3d:material:color:0:float32:4",
			"g3d:material:glossiness:0:float32:1",
			"g3d:material:smoothness:0:float32:1",
			"g3d:submesh:indexoffset:0:int32:1",
			"g3d:submesh:material:0:int32:1",
			"g3d:mesh:submeshoffset:0:int32:1",
			"g3d:instance:transform:0:float32:16",
			"g3d:instance:mesh:0:int32:1",
			"meta", // non-attribute buffer, skipped by the table
		},
		[][]byte{
			f32b(0, 0, 0, 1, 0, 0, 0, 1, 0),
			i32b(0, 1, 2),
			f32b(0.8, 0.2, 0.2, 1),
			f32b(0.5),
			f32b(0.5),
			i32b(0),
			i32b(0),
			i32b(0),
			f32b(append(identity, translated...)...),
			i32b(0, 0),
			[]byte("auxiliary"),
		},
	)

	return encodeContainer(
		[]string{"header", "geometry"},
		[][]byte{[]byte(`{"vim":"1.0"}`), geometry},
	)
}

func TestLoadBytes(t *testing.T) {
	doc, err := LoadBytes(context.Background(), testVim(), Options{Workers: 2})
	require.NoError(t, err)

	m := doc.Model
	assert.Len(t, m.Positions, 9)
	assert.Len(t, m.Indices, 3)
	assert.Len(t, m.Materials, 2) // 1 + default
	assert.Len(t, m.Meshes, 1)
	assert.Len(t, m.Instances, 2)
	assert.Len(t, m.InstancedMeshes, 1)
	assert.Equal(t, 2, m.InstancedMeshes[0].InstanceCount)

	require.NotNil(t, doc.Tree)
	require.NotNil(t, doc.Tree.Root)

	// Scene bounds covers both placements.
	assert.Equal(t, float32(0), m.Bounds.Min[0])
	assert.Equal(t, float32(11), m.Bounds.Max[0])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vim")
	require.NoError(t, os.WriteFile(path, testVim(), 0644))

	doc, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	defer doc.Close()

	assert.Len(t, doc.Model.Instances, 2)
}

func TestLoadFileMapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vim")
	require.NoError(t, os.WriteFile(path, testVim(), 0644))

	// Threshold of 1 byte forces the mmap path.
	doc, err := Load(context.Background(), path, Options{MmapThreshold: 1})
	require.NoError(t, err)

	assert.Len(t, doc.Model.Instances, 2)
	assert.NoError(t, doc.Close())
}

func TestLoadMissingGeometry(t *testing.T) {
	data := encodeContainer([]string{"header"}, [][]byte{[]byte("{}")})
	_, err := LoadBytes(context.Background(), data, Options{})
	assert.Error(t, err)
}

func TestLoadCorruptGeometry(t *testing.T) {
	data := encodeContainer(
		[]string{"geometry"},
		[][]byte{{0xDE, 0xAD, 0xBE, 0xEF}},
	)
	_, err := LoadBytes(context.Background(), data, Options{})
	assert.ErrorIs(t, err, bfast.ErrTruncated)
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadBytes(ctx, testVim(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadPropagatesValidation(t *testing.T) {
	// Geometry with indices but no positions.
	geometry := encodeContainer(
		[]string{"g3d:corner:index:0:int32:1"},
		[][]byte{i32b(0, 1, 2)},
	)
	data := encodeContainer([]string{"geometry"}, [][]byte{geometry})

	_, err := LoadBytes(context.Background(), data, Options{})
	var verr *scene.ValidationError
	assert.ErrorAs(t, err, &verr)
}
