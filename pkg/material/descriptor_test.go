package material

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

func TestDescriptor_Build(t *testing.T) {
	tests := []struct {
		name       string
		descriptor Descriptor
		check      func(t *testing.T, m Material)
	}{
		{
			name:       "lambertian",
			descriptor: Descriptor{Type: TypeLambertian, Albedo: [3]float64{0.2, 0.6, 0.1}},
			check: func(t *testing.T, m Material) {
				l, ok := m.(*Lambertian)
				if !ok || l.Albedo != core.NewVec3(0.2, 0.6, 0.1) {
					t.Errorf("Unexpected material %#v", m)
				}
			},
		},
		{
			name:       "metal clamps roughness",
			descriptor: Descriptor{Type: TypeMetal, Albedo: [3]float64{0.7, 0.3, 0.3}, Roughness: 4},
			check: func(t *testing.T, m Material) {
				metal, ok := m.(*Metal)
				if !ok || metal.Roughness != 1 {
					t.Errorf("Unexpected material %#v", m)
				}
			},
		},
		{
			name:       "dielectric",
			descriptor: Descriptor{Type: TypeDielectric, IOR: 1.51},
			check: func(t *testing.T, m Material) {
				d, ok := m.(*Dielectric)
				if !ok || d.RefractiveIndex != 1.51 {
					t.Errorf("Unexpected material %#v", m)
				}
			},
		},
		{
			name:       "emissive",
			descriptor: Descriptor{Type: TypeEmissive, Color: [3]float64{0.8, 0, 1}, Brightness: 10},
			check: func(t *testing.T, m Material) {
				e, ok := m.(*Emissive)
				if !ok || e.Emission() != core.NewVec3(8, 0, 10) {
					t.Errorf("Unexpected material %#v", m)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.descriptor.Build()
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestDescriptor_BuildRejectsInvalid(t *testing.T) {
	tests := []struct {
		name       string
		descriptor Descriptor
	}{
		{"unknown type", Descriptor{Type: "velvet"}},
		{"negative albedo", Descriptor{Type: TypeLambertian, Albedo: [3]float64{-0.1, 0, 0}}},
		{"NaN albedo", Descriptor{Type: TypeMetal, Albedo: [3]float64{math.NaN(), 0, 0}}},
		{"zero ior", Descriptor{Type: TypeDielectric}},
		{"infinite ior", Descriptor{Type: TypeDielectric, IOR: math.Inf(1)}},
		{"negative brightness", Descriptor{Type: TypeEmissive, Color: [3]float64{1, 1, 1}, Brightness: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.descriptor.Build()
			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("Expected ErrInvalidDescriptor, got %v", err)
			}
		})
	}
}

func TestDescriptor_ErrorNamesMaterial(t *testing.T) {
	_, err := Descriptor{Name: "ground", Type: TypeDielectric, IOR: -1}.Build()
	if err == nil || !strings.Contains(err.Error(), `"ground"`) {
		t.Errorf("Expected error to name the material, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		material Material
		prefix   string
	}{
		{NewLambertian(core.NewVec3(0.5, 0.5, 0.5)), "lambertian"},
		{NewMetal(core.NewVec3(0.5, 0.5, 0.5), 0.1), "metal"},
		{NewDielectric(1.5), "dielectric ior=1.50"},
		{NewEmissive(core.NewVec3(1, 1, 1), 3), "emissive"},
	}

	for _, tt := range tests {
		if got := Describe(tt.material); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("Describe(%T) = %q, want prefix %q", tt.material, got, tt.prefix)
		}
	}
}
