package raster

// RasterizeTriangle rasterizes a single flat-shaded triangle with z-buffer
// depth testing and source-over alpha blending.
//
// This is the hot path; the inner loop does not allocate. px/py are screen
// coordinates, pz is NDC depth (smaller is closer). The fill color is
// already lit by the caller.
func RasterizeTriangle(
	fb *FrameBuffer,
	px, py, pz [3]float32,
	r, g, b, a uint8,
) {
	x0, y0, z0 := px[0], py[0], pz[0]
	x1, y1, z1 := px[1], py[1], pz[1]
	x2, y2, z2 := px[2], py[2], pz[2]

	// Bounding box clamped to the framebuffer
	minX := int(min3(x0, x1, x2))
	maxX := int(max3(x0, x1, x2)) + 1
	minY := int(min3(y0, y1, y2))
	maxY := int(max3(y0, y1, y2)) + 1
	if minX < 0 {
		minX = 0
	}
	if maxX > fb.Width {
		maxX = fb.Width
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > fb.Height {
		maxY = fb.Height
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	opaque := a == 255
	fa := float32(a) / 255

	for y := minY; y < maxY; y++ {
		fy := float32(y) + 0.5
		row := y * fb.Width
		for x := minX; x < maxX; x++ {
			fx := float32(x) + 0.5

			w0 := (dy12*(fx-x2) + dx21*(fy-y2)) * invDet
			w1 := (dy20*(fx-x2) + dx02*(fy-y2)) * invDet
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			pi := row + x
			if z >= fb.ZBuf[pi] {
				continue
			}

			ci := pi * 4
			if opaque {
				fb.ZBuf[pi] = z
				fb.Color[ci] = r
				fb.Color[ci+1] = g
				fb.Color[ci+2] = b
				fb.Color[ci+3] = 255
				continue
			}

			// Source-over blend; transparent fragments do not write depth,
			// so later transparent geometry still shows through.
			inv := 1 - fa
			fb.Color[ci] = uint8(float32(r)*fa + float32(fb.Color[ci])*inv)
			fb.Color[ci+1] = uint8(float32(g)*fa + float32(fb.Color[ci+1])*inv)
			fb.Color[ci+2] = uint8(float32(b)*fa + float32(fb.Color[ci+2])*inv)
			na := fa + float32(fb.Color[ci+3])/255*inv
			fb.Color[ci+3] = uint8(na * 255)
		}
	}
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
