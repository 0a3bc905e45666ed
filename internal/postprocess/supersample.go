// Package postprocess contains image-space cleanup for rendered snapshots.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample reduces a supersampled snapshot to targetSize with
// premultiplied-alpha CatmullRom filtering. Filtering straight alpha would
// bleed the transparent background into edge pixels as dark halos.
func Downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for y := 0; y < targetSize; y++ {
		for x := 0; x < targetSize; x++ {
			si := dst.PixOffset(x, y)
			di := out.PixOffset(x, y)
			a := dst.Pix[si+3]
			out.Pix[di+3] = a
			if a == 0 {
				continue
			}
			fa := 255.0 / float64(a)
			out.Pix[di] = clamp8(float64(dst.Pix[si]) * fa)
			out.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * fa)
			out.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * fa)
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v + 0.5)
}
