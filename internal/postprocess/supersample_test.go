package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solid(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDownsampleSize(t *testing.T) {
	img := solid(64, color.NRGBA{200, 100, 50, 255})
	out := Downsample(img, 32)
	assert.Equal(t, 32, out.Bounds().Dx())
	assert.Equal(t, 32, out.Bounds().Dy())
}

func TestDownsamplePassthrough(t *testing.T) {
	img := solid(32, color.NRGBA{10, 20, 30, 255})
	out := Downsample(img, 32)
	assert.Same(t, img, out, "already at target size, no rescale")
}

func TestDownsamplePreservesSolidColor(t *testing.T) {
	img := solid(64, color.NRGBA{200, 100, 50, 255})
	out := Downsample(img, 16)

	c := out.NRGBAAt(8, 8)
	assert.InDelta(t, 200, int(c.R), 1)
	assert.InDelta(t, 100, int(c.G), 1)
	assert.InDelta(t, 50, int(c.B), 1)
	assert.Equal(t, uint8(255), c.A)
}

func TestDownsampleNoDarkHalo(t *testing.T) {
	// White square on a fully transparent background. With straight-alpha
	// filtering the edge pixels would darken toward the background's zero
	// RGB; premultiplied filtering keeps them white.
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	out := Downsample(img, 16)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := out.NRGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			assert.GreaterOrEqual(t, int(c.R), 250, "edge pixel at (%d,%d) darkened", x, y)
			assert.GreaterOrEqual(t, int(c.G), 250, "edge pixel at (%d,%d) darkened", x, y)
			assert.GreaterOrEqual(t, int(c.B), 250, "edge pixel at (%d,%d) darkened", x, y)
		}
	}

	center := out.NRGBAAt(8, 8)
	assert.Equal(t, uint8(255), center.A)
}
