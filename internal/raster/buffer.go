package raster

import "github.com/chewxy/math32"

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float32 // NDC depth per pixel, len = W*H, initialized to +inf
}

// NewFrameBuffer allocates a zeroed color buffer and +inf z-buffer
// (smaller depth is closer).
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	zbuf := make([]float32, n)
	inf := math32.Inf(1)
	for i := range zbuf {
		zbuf[i] = inf
	}
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		ZBuf:   zbuf,
	}
}
