// Package bfast reads the BFAST binary container format: a 32-byte header, a
// table of byte ranges, a name table, and N-1 raw data buffers addressed by
// those ranges. Containers nest; a named buffer's payload may itself be a
// BFAST container.
package bfast

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Magic is the first 8 bytes of every BFAST container.
const Magic uint64 = 0xBFA5

const (
	// HeaderSize is the fixed byte length of the container header.
	HeaderSize = 32
	// RangeSize is the byte length of one range record.
	RangeSize = 16
)

// Errors returned while parsing a container. All are fatal to the container
// being parsed; when the container is nested inside a named buffer the outer
// load may continue without the nested section.
var (
	ErrBadMagic      = errors.New("bfast: bad magic")
	ErrBadHeader     = errors.New("bfast: bad header")
	ErrCountMismatch = errors.New("bfast: name count mismatch")
	ErrTruncated     = errors.New("bfast: truncated")
)

// Header is the fixed 32-byte container header, little-endian.
type Header struct {
	Magic     uint64
	DataStart uint64
	DataEnd   uint64
	NumArrays uint64
}

// Range addresses one buffer as absolute [Begin, End) byte offsets into the
// container block.
type Range struct {
	Begin uint64
	End   uint64
}

// NamedBuffer pairs a name from the name table with the raw bytes of the
// corresponding data range. Data aliases the container's backing block.
type NamedBuffer struct {
	Name string
	Data []byte
}

// Container is a fully parsed BFAST block.
type Container struct {
	Header  Header
	Buffers []NamedBuffer

	close func() error
}

// Read parses a BFAST container from an in-memory block.
//
// Range 0 is the name table: NUL-separated UTF-8 entries, one per data
// buffer. Ranges 1..N-1 pair positionally with those names. Ranges with
// begin >= end are skipped without error; their name slot is consumed.
func Read(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrTruncated, len(data))
	}

	h := Header{
		Magic:     binary.LittleEndian.Uint64(data[0:]),
		DataStart: binary.LittleEndian.Uint64(data[8:]),
		DataEnd:   binary.LittleEndian.Uint64(data[16:]),
		NumArrays: binary.LittleEndian.Uint64(data[24:]),
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: %#x", ErrBadMagic, h.Magic)
	}
	if h.NumArrays == 0 {
		return nil, fmt.Errorf("%w: zero arrays", ErrBadHeader)
	}

	if h.NumArrays > uint64(len(data))/RangeSize {
		return nil, fmt.Errorf("%w: %d arrays in %d bytes", ErrTruncated, h.NumArrays, len(data))
	}
	tableEnd := uint64(HeaderSize) + h.NumArrays*RangeSize
	if tableEnd > uint64(len(data)) {
		return nil, fmt.Errorf("%w: range table needs %d bytes, have %d",
			ErrTruncated, tableEnd, len(data))
	}
	if h.DataEnd < h.DataStart || h.DataEnd > uint64(len(data)) {
		return nil, fmt.Errorf("%w: data region [%d, %d) outside %d bytes",
			ErrBadHeader, h.DataStart, h.DataEnd, len(data))
	}

	ranges := make([]Range, h.NumArrays)
	for i := range ranges {
		off := HeaderSize + i*RangeSize
		ranges[i] = Range{
			Begin: binary.LittleEndian.Uint64(data[off:]),
			End:   binary.LittleEndian.Uint64(data[off+8:]),
		}
		if ranges[i].Begin < ranges[i].End && ranges[i].End > uint64(len(data)) {
			return nil, fmt.Errorf("%w: range %d ends at %d, have %d bytes",
				ErrTruncated, i, ranges[i].End, len(data))
		}
	}

	names := parseNames(slice(data, ranges[0]))
	if uint64(len(names)) != h.NumArrays-1 {
		return nil, fmt.Errorf("%w: %d names for %d buffers",
			ErrCountMismatch, len(names), h.NumArrays-1)
	}

	c := &Container{Header: h}
	for i, r := range ranges[1:] {
		if r.Begin >= r.End {
			continue // empty or inverted range, name slot consumed
		}
		c.Buffers = append(c.Buffers, NamedBuffer{
			Name: names[i],
			Data: slice(data, r),
		})
	}
	return c, nil
}

// Buffer returns the first buffer with the given name, or nil.
func (c *Container) Buffer(name string) *NamedBuffer {
	for i := range c.Buffers {
		if c.Buffers[i].Name == name {
			return &c.Buffers[i]
		}
	}
	return nil
}

// Nested parses the named buffer's payload as a nested BFAST container.
func (c *Container) Nested(name string) (*Container, error) {
	b := c.Buffer(name)
	if b == nil {
		return nil, fmt.Errorf("bfast: no buffer named %q", name)
	}
	return Read(b.Data)
}

// Close releases the backing memory mapping, if any. Buffers must not be
// used after Close. Safe to call on in-memory containers.
func (c *Container) Close() error {
	if c.close == nil {
		return nil
	}
	fn := c.close
	c.close = nil
	return fn()
}

func slice(data []byte, r Range) []byte {
	if r.Begin >= r.End || r.End > uint64(len(data)) {
		return nil
	}
	return data[r.Begin:r.End]
}

// parseNames splits a NUL-separated name table. A trailing NUL does not
// produce an extra empty name.
func parseNames(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	parts := strings.Split(string(data), "\x00")
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}
