package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Material interface for surfaces that interact with light.
//
// Scatter returns true with the attenuation and continuation ray when the path
// goes on. It returns false when the path ends at this surface; the attenuation
// is then the radiance the surface emits, which is zero for absorbers.
type Material interface {
	Scatter(rayIn core.Ray, hit core.HitRecord, sampler core.Sampler) (ScatterResult, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray, unset when the path terminates
	Attenuation core.Vec3 // Color attenuation, or emitted radiance on termination
}
