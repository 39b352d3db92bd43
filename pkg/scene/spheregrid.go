package scene

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// SphereGridSize is the number of spheres along each side of the grid preset
const SphereGridSize = 20

// oklchToRGB converts OKLCH color values to linear RGB clamped to [0, 1].
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(
		math.Max(0, math.Min(1, r)),
		math.Max(0, math.Min(1, g)),
		math.Max(0, math.Min(1, blue)),
	)
}

// NewSphereGridScene creates a grid of metal spheres whose hue varies along x and chroma along z.
// A large warm light sphere hangs above one corner.
func NewSphereGridScene() *Scene {
	s := New("grid")
	s.Description = "Grid of colored metal spheres under a warm light"
	s.SamplingConfig = SamplingConfig{SamplesPerPixel: 100, MaxBounceDepth: 40}

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	sun := s.AddMaterial(material.NewEmissive(core.NewVec3(1.0, 0.96, 0.83), 12))
	s.mustAddSphere(core.NewVec3(4.5, -1000, 4.5), 1000, ground)
	s.mustAddSphere(core.NewVec3(20, 25, 20), 8, sun)

	// Fit the grid into a 9x9 area centred on x=z=4.5
	const targetArea = 9.0
	spacing := targetArea / float64(SphereGridSize-1)
	radius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	const (
		baseLightness = 0.65
		minChroma     = 0.05
		maxChroma     = 0.25
	)

	for i := 0; i < SphereGridSize; i++ {
		for j := 0; j < SphereGridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0 + 4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5

			hue := (float64(i) / float64(SphereGridSize-1)) * 360.0
			chroma := minChroma + (float64(j)/float64(SphereGridSize-1))*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			roughness := 0.05 + 0.1*float64((i+j)%3)/2.0

			metal := s.AddMaterial(material.NewMetal(oklchToRGB(lightness, chroma, hue), roughness))
			s.mustAddSphere(core.NewVec3(x, radius, z), radius, metal)
		}
	}

	s.mustSetCamera(geometry.CameraConfig{
		Origin:   core.NewVec3(4.5, 6, 18),
		LookAt:   core.NewVec3(4.5, 0.8, 4.5),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     40,
		Aperture: 0.02,
		Width:    800,
		Height:   450,
	})

	return s
}
