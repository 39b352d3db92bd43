package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Emissive represents a light-emitting material
type Emissive struct {
	Color      core.Vec3 // Emitted light color
	Brightness float64   // Scale applied to Color
}

// NewEmissive creates a new emissive material
func NewEmissive(color core.Vec3, brightness float64) *Emissive {
	return &Emissive{Color: color, Brightness: brightness}
}

// Emission returns the radiance leaving the surface
func (e *Emissive) Emission() core.Vec3 {
	return e.Color.Multiply(e.Brightness)
}

// Scatter implements the Material interface for emissive materials.
// Lights never scatter; the path ends here carrying the emitted radiance.
func (e *Emissive) Scatter(rayIn core.Ray, hit core.HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	return ScatterResult{Attenuation: e.Emission()}, false
}
