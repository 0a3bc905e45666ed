package raster

import (
	"github.com/chewxy/math32"

	"vim-scene-renderer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters for flat shading.
type LightConfig struct {
	LightDir mathutil.Vec3
	ViewDir  mathutil.Vec3
	HalfMain mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient  float32
	Hemi     float32
	Direct   float32
	SpecInt  float32
}

// DefaultLightConfig returns a single key light above and behind the
// camera's default framing, with a hemisphere fill.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{0.4, 0.8, 0.45}.Normalize()
	viewDir := mathutil.Vec3{0, -0.25, -1}.Normalize()
	return LightConfig{
		LightDir: lightDir,
		ViewDir:  viewDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.35,
		Hemi:     0.25,
		Direct:   0.85,
		SpecInt:  0.35,
	}
}

// Shade returns the lighting scalar for a face normal. Glossiness and
// smoothness come from the material: smoothness sharpens the specular
// lobe, glossiness scales its intensity.
func (lc *LightConfig) Shade(normal mathutil.Vec3, glossiness, smoothness float32) float32 {
	// Lambertian, abs for double-sided faces
	ndl := math32.Abs(normal.Dot(lc.LightDir))

	// Hemisphere fill
	hemi := ((1-math32.Abs(normal[1]))*0.5 + 0.5) * lc.Hemi

	// Blinn-Phong specular
	ndh := normal.Dot(lc.HalfMain)
	if ndh < 0 {
		ndh = 0
	}
	specPow := 4 + smoothness*60
	spec := math32.Pow(ndh, specPow) * lc.SpecInt * glossiness

	return lc.Ambient + hemi + ndl*lc.Direct + spec
}
