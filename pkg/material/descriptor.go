package material

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// ErrInvalidDescriptor is returned when a descriptor cannot be turned into a material
var ErrInvalidDescriptor = errors.New("invalid material descriptor")

// Type enumerates the supported material kinds
type Type string

const (
	TypeLambertian Type = "lambertian"
	TypeMetal      Type = "metal"
	TypeDielectric Type = "dielectric"
	TypeEmissive   Type = "emissive"
)

// Descriptor is the serializable form of a material, as found in scene files
type Descriptor struct {
	Name       string     `json:"name,omitempty"`
	Type       Type       `json:"type"`
	Albedo     [3]float64 `json:"albedo,omitempty"`     // lambertian, metal
	Roughness  float64    `json:"roughness,omitempty"`  // metal
	IOR        float64    `json:"ior,omitempty"`        // dielectric
	Color      [3]float64 `json:"color,omitempty"`      // emissive
	Brightness float64    `json:"brightness,omitempty"` // emissive
}

// Build validates the descriptor and creates the material it describes
func (d Descriptor) Build() (Material, error) {
	switch d.Type {
	case TypeLambertian:
		albedo, err := d.vec("albedo", d.Albedo)
		if err != nil {
			return nil, err
		}
		return NewLambertian(albedo), nil
	case TypeMetal:
		albedo, err := d.vec("albedo", d.Albedo)
		if err != nil {
			return nil, err
		}
		return NewMetal(albedo, d.Roughness), nil
	case TypeDielectric:
		if !(d.IOR > 0) || math.IsInf(d.IOR, 0) {
			return nil, fmt.Errorf("%s: ior %v: %w", d.label(), d.IOR, ErrInvalidDescriptor)
		}
		return NewDielectric(d.IOR), nil
	case TypeEmissive:
		color, err := d.vec("color", d.Color)
		if err != nil {
			return nil, err
		}
		if d.Brightness < 0 || math.IsNaN(d.Brightness) || math.IsInf(d.Brightness, 0) {
			return nil, fmt.Errorf("%s: brightness %v: %w", d.label(), d.Brightness, ErrInvalidDescriptor)
		}
		return NewEmissive(color, d.Brightness), nil
	default:
		return nil, fmt.Errorf("%s: unknown type %q: %w", d.label(), d.Type, ErrInvalidDescriptor)
	}
}

func (d Descriptor) vec(field string, v [3]float64) (core.Vec3, error) {
	vec := core.NewVec3(v[0], v[1], v[2])
	if !vec.IsFinite() || vec.X < 0 || vec.Y < 0 || vec.Z < 0 {
		return core.Vec3{}, fmt.Errorf("%s: %s %v: %w", d.label(), field, v, ErrInvalidDescriptor)
	}
	return vec, nil
}

func (d Descriptor) label() string {
	if d.Name != "" {
		return fmt.Sprintf("material %q", d.Name)
	}
	return "material"
}

// Describe returns a short human readable summary of a material
func Describe(m Material) string {
	switch mat := m.(type) {
	case *Lambertian:
		return fmt.Sprintf("lambertian albedo=(%.2f, %.2f, %.2f)", mat.Albedo.X, mat.Albedo.Y, mat.Albedo.Z)
	case *Metal:
		return fmt.Sprintf("metal albedo=(%.2f, %.2f, %.2f) roughness=%.2f", mat.Albedo.X, mat.Albedo.Y, mat.Albedo.Z, mat.Roughness)
	case *Dielectric:
		return fmt.Sprintf("dielectric ior=%.2f", mat.RefractiveIndex)
	case *Emissive:
		return fmt.Sprintf("emissive color=(%.2f, %.2f, %.2f) brightness=%.2f", mat.Color.X, mat.Color.Y, mat.Color.Z, mat.Brightness)
	default:
		return fmt.Sprintf("%T", m)
	}
}
