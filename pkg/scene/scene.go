package scene

import (
	"fmt"
	"math/rand"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// Scene contains all the elements needed for rendering.
// It is not safe for concurrent mutation; renderers read it between builds.
type Scene struct {
	Name           string
	Description    string
	SamplingConfig SamplingConfig

	camera        *geometry.Camera
	materials     []material.Material
	materialNames map[string]int
	spheres       []*geometry.Sphere
	bvh           *geometry.BVH
	built         bool
	generation    uint64
}

// SamplingConfig contains the recommended rendering configuration for a scene
type SamplingConfig struct {
	SamplesPerPixel int `json:"samplesPerPixel"` // Target samples before the image converges
	MaxBounceDepth  int `json:"maxBounceDepth"`  // Maximum scatter events after the primary hit
}

// DefaultSamplingConfig returns the sampling settings used by the presets
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxBounceDepth:  50,
	}
}

// DefaultCameraConfig returns a pinhole camera at the origin looking down -z
func DefaultCameraConfig() geometry.CameraConfig {
	return geometry.CameraConfig{
		Origin: core.NewVec3(0, 0, 0),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   90,
		Width:  640,
		Height: 480,
	}
}

// New creates an empty, unbuilt scene with the default camera
func New(name string) *Scene {
	s := &Scene{
		Name:           name,
		SamplingConfig: DefaultSamplingConfig(),
		materialNames:  make(map[string]int),
	}
	if err := s.SetCamera(DefaultCameraConfig()); err != nil {
		panic(err)
	}
	return s
}

// SetCamera replaces the scene camera
func (s *Scene) SetCamera(config geometry.CameraConfig) error {
	camera, err := geometry.NewCamera(config)
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	s.camera = camera
	return nil
}

// Camera returns the scene camera. Callers mutating it must call Update before generating rays.
func (s *Scene) Camera() *geometry.Camera {
	return s.camera
}

// AddMaterial appends a material and returns its index
func (s *Scene) AddMaterial(m material.Material) int {
	s.materials = append(s.materials, m)
	return len(s.materials) - 1
}

// AddMaterialDescriptor builds a material from its descriptor and appends it.
// Named descriptors can later be looked up with MaterialID.
func (s *Scene) AddMaterialDescriptor(d material.Descriptor) (int, error) {
	m, err := d.Build()
	if err != nil {
		return -1, err
	}
	if d.Name != "" {
		if _, exists := s.materialNames[d.Name]; exists {
			return -1, fmt.Errorf("duplicate material %q: %w", d.Name, material.ErrInvalidDescriptor)
		}
	}

	id := s.AddMaterial(m)
	if d.Name != "" {
		s.materialNames[d.Name] = id
	}
	return id, nil
}

// MaterialID resolves a named material
func (s *Scene) MaterialID(name string) (int, bool) {
	id, ok := s.materialNames[name]
	return id, ok
}

// AddSphere appends a sphere and returns its primitive index.
// The scene is unbuilt until the next BuildAccelerationStructure.
func (s *Scene) AddSphere(center core.Vec3, radius float64, materialID int) (int, error) {
	if materialID < 0 || materialID >= len(s.materials) {
		return -1, fmt.Errorf("sphere material %d (have %d): %w", materialID, len(s.materials), core.ErrInvalidMaterial)
	}

	sphere, err := geometry.NewSphere(center, radius, materialID)
	if err != nil {
		return -1, err
	}

	s.spheres = append(s.spheres, sphere)
	s.built = false
	return len(s.spheres) - 1, nil
}

// BuildAccelerationStructure builds a fresh BVH over the current primitives.
// The previous tree is only replaced once the new one is complete.
func (s *Scene) BuildAccelerationStructure(seed int64) error {
	shapes := make([]geometry.Shape, len(s.spheres))
	for i, sphere := range s.spheres {
		shapes[i] = sphere
	}

	bvh, err := geometry.NewBVH(shapes, rand.New(rand.NewSource(seed)))
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}

	s.bvh = bvh
	s.built = true
	s.generation++
	return nil
}

// IsBuilt reports whether the acceleration structure covers every primitive
func (s *Scene) IsBuilt() bool {
	return s.built
}

// Generation increases with every successful build
func (s *Scene) Generation() uint64 {
	return s.generation
}

// Hit returns the nearest intersection using the acceleration structure
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	if s.bvh == nil {
		return core.HitRecord{}, false
	}
	return s.bvh.Hit(ray, tMin, tMax)
}

// Material resolves a material index. An out of range index is a programming error.
func (s *Scene) Material(id int) material.Material {
	if id < 0 || id >= len(s.materials) {
		panic(fmt.Errorf("material %d (have %d): %w", id, len(s.materials), core.ErrInvalidMaterial))
	}
	return s.materials[id]
}

// PrimitiveCount returns the number of spheres in the scene
func (s *Scene) PrimitiveCount() int {
	return len(s.spheres)
}

// Sphere returns the primitive with the given index
func (s *Scene) Sphere(id int) (*geometry.Sphere, bool) {
	if id < 0 || id >= len(s.spheres) {
		return nil, false
	}
	return s.spheres[id], true
}

// MaterialCount returns the number of materials in the scene
func (s *Scene) MaterialCount() int {
	return len(s.materials)
}

// BVHStats returns statistics of the current acceleration structure
func (s *Scene) BVHStats() geometry.BVHStats {
	if s.bvh == nil {
		return geometry.BVHStats{}
	}
	return s.bvh.Stats()
}

// DescribeHeader labels the columns returned by Describe
var DescribeHeader = []string{"#", "Center", "Radius", "Material"}

// Describe returns one row per primitive for tabular printing
func (s *Scene) Describe() [][]string {
	rows := make([][]string, 0, len(s.spheres))
	for i, sphere := range s.spheres {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("(%.2f, %.2f, %.2f)", sphere.Center.X, sphere.Center.Y, sphere.Center.Z),
			fmt.Sprintf("%.2f", sphere.Radius),
			fmt.Sprintf("%d: %s", sphere.MaterialID, material.Describe(s.materials[sphere.MaterialID])),
		})
	}
	return rows
}
