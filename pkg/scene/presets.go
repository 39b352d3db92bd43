package scene

import (
	"math/rand"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// NewShowcaseScene creates a small table-top arrangement: glass, diffuse and metal spheres
// on a green ground, with a purple light floating behind the camera's focus point
func NewShowcaseScene() *Scene {
	s := New("showcase")
	s.Description = "Glass, diffuse and metal spheres lit by the sky and a purple glow"

	gray := s.AddMaterial(material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7)))
	redMetal := s.AddMaterial(material.NewMetal(core.NewVec3(0.7, 0.3, 0.3), 0.05))
	metal := s.AddMaterial(material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.3))
	glass := s.AddMaterial(material.NewDielectric(1.51))
	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.2, 0.6, 0.1)))
	purpleGlow := s.AddMaterial(material.NewEmissive(core.NewVec3(0.8, 0.0, 1.0), 10))

	s.mustAddSphere(core.NewVec3(0, -100.5, -1), 100, ground)
	s.mustAddSphere(core.NewVec3(-1, 0, -1), 0.5, glass)
	s.mustAddSphere(core.NewVec3(0, 0, -1), 0.5, gray)
	s.mustAddSphere(core.NewVec3(1, 0, -1), 0.5, redMetal)
	s.mustAddSphere(core.NewVec3(0.1, 1, -1.5), 0.34, metal)
	s.mustAddSphere(core.NewVec3(0.1, 1, 0.5), 0.34, purpleGlow)

	lookFrom := core.NewVec3(3, 3, 2)
	lookAt := core.NewVec3(0, 0, -1)
	s.mustSetCamera(geometry.CameraConfig{
		Origin:        lookFrom,
		LookAt:        lookAt,
		Up:            core.NewVec3(0, 1, 0),
		VFov:          50,
		Aperture:      0,
		FocusDistance: lookFrom.Subtract(lookAt).Length(),
		Width:         640,
		Height:        480,
	})

	return s
}

// NewRandomScene creates the classic field of small random spheres around three large ones.
// The same seed always produces the same scene.
func NewRandomScene(seed int64) *Scene {
	s := New("random")
	s.Description = "Hundreds of small random spheres around glass, diffuse and mirror giants"
	random := rand.New(rand.NewSource(seed))

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	s.mustAddSphere(core.NewVec3(0, -1000, 0), 1000, ground)

	clearing := core.NewVec3(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float64()
			center := core.NewVec3(float64(a)+0.9*random.Float64(), 0.2, float64(b)+0.9*random.Float64())

			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			var m material.Material
			switch {
			case chooseMat < 0.8:
				albedo := randomColor(random).MultiplyVec(randomColor(random))
				m = material.NewLambertian(albedo)
			case chooseMat < 0.95:
				albedo := randomColorRange(random, 0.5, 1)
				m = material.NewMetal(albedo, random.Float64())
			default:
				m = material.NewDielectric(1.5)
			}
			s.mustAddSphere(center, 0.2, s.AddMaterial(m))
		}
	}

	s.mustAddSphere(core.NewVec3(0, 1, 0), 1.0, s.AddMaterial(material.NewDielectric(1.5)))
	s.mustAddSphere(core.NewVec3(-4, 1, 0), 1.0, s.AddMaterial(material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))))
	s.mustAddSphere(core.NewVec3(4, 1, 0), 1.0, s.AddMaterial(material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)))

	lookFrom := core.NewVec3(13, 2, 3)
	lookAt := core.NewVec3(0, 0, 0)
	s.mustSetCamera(geometry.CameraConfig{
		Origin:        lookFrom,
		LookAt:        lookAt,
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		Aperture:      0.1,
		FocusDistance: lookFrom.Subtract(lookAt).Length(),
		Width:         640,
		Height:        480,
	})

	return s
}

// NewEmptyScene creates a scene with nothing but sky
func NewEmptyScene() *Scene {
	s := New("empty")
	s.Description = "Sky gradient only"
	return s
}

// Fixed preset data cannot fail validation
func (s *Scene) mustAddSphere(center core.Vec3, radius float64, materialID int) {
	if _, err := s.AddSphere(center, radius, materialID); err != nil {
		panic(err)
	}
}

func (s *Scene) mustSetCamera(config geometry.CameraConfig) {
	if err := s.SetCamera(config); err != nil {
		panic(err)
	}
}

func randomColor(random *rand.Rand) core.Vec3 {
	return core.NewVec3(random.Float64(), random.Float64(), random.Float64())
}

func randomColorRange(random *rand.Rand, lo, hi float64) core.Vec3 {
	return core.NewVec3(
		lo+(hi-lo)*random.Float64(),
		lo+(hi-lo)*random.Float64(),
		lo+(hi-lo)*random.Float64(),
	)
}
