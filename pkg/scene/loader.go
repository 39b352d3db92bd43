package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// File is the on-disk JSON representation of a scene
type File struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Camera      *CameraFile           `json:"camera,omitempty"`
	Sampling    *SamplingConfig       `json:"sampling,omitempty"`
	Materials   []material.Descriptor `json:"materials"`
	Spheres     []SphereFile          `json:"spheres"`
}

// CameraFile describes the camera of a scene file. Zero width or height keeps the default resolution.
type CameraFile struct {
	Origin        [3]float64 `json:"origin"`
	LookAt        [3]float64 `json:"lookAt"`
	Up            [3]float64 `json:"up"`
	VFov          float64    `json:"vfov"`
	Aperture      float64    `json:"aperture,omitempty"`
	FocusDistance float64    `json:"focusDistance,omitempty"`
	Width         int        `json:"width,omitempty"`
	Height        int        `json:"height,omitempty"`
}

// SphereFile places a sphere and refers to a material by name
type SphereFile struct {
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`
	Material string     `json:"material"`
}

// Load reads a JSON scene file. The returned scene is not built.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// Decode reads a JSON scene from r
func Decode(r io.Reader) (*Scene, error) {
	var file File
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return file.Build()
}

// Build converts the file representation into an unbuilt scene
func (f *File) Build() (*Scene, error) {
	s := New(f.Name)
	s.Description = f.Description

	if f.Sampling != nil {
		if f.Sampling.SamplesPerPixel > 0 {
			s.SamplingConfig.SamplesPerPixel = f.Sampling.SamplesPerPixel
		}
		if f.Sampling.MaxBounceDepth > 0 {
			s.SamplingConfig.MaxBounceDepth = f.Sampling.MaxBounceDepth
		}
	}

	for _, d := range f.Materials {
		if _, err := s.AddMaterialDescriptor(d); err != nil {
			return nil, err
		}
	}

	for i, sf := range f.Spheres {
		id, ok := s.MaterialID(sf.Material)
		if !ok {
			return nil, fmt.Errorf("sphere %d: material %q: %w", i, sf.Material, core.ErrInvalidMaterial)
		}
		if _, err := s.AddSphere(vec(sf.Center), sf.Radius, id); err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
	}

	if f.Camera != nil {
		if err := s.SetCamera(f.Camera.config()); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (c *CameraFile) config() geometry.CameraConfig {
	config := DefaultCameraConfig()
	config.Origin = vec(c.Origin)
	config.LookAt = vec(c.LookAt)
	config.Up = vec(c.Up)
	config.VFov = c.VFov
	config.Aperture = c.Aperture
	config.FocusDistance = c.FocusDistance
	if c.Width > 0 && c.Height > 0 {
		config.Width, config.Height = c.Width, c.Height
	}
	return config
}

func vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
