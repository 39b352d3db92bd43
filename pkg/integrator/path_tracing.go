package integrator

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// ShadowEpsilon offsets the start of every ray segment to avoid self-intersection
const ShadowEpsilon = 0.001

var (
	skyHorizon = core.NewVec3(1.0, 1.0, 1.0)
	skyZenith  = core.NewVec3(0.5, 0.7, 1.0)
)

// PathTracingIntegrator implements unidirectional path tracing
type PathTracingIntegrator struct{}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator() *PathTracingIntegrator {
	return &PathTracingIntegrator{}
}

// EstimateRadiance follows a path through the world and returns the light carried back along ray.
// Each segment consumes one unit of depthBudget; a zero budget yields black.
func (pt *PathTracingIntegrator) EstimateRadiance(ray core.Ray, world World, sampler core.Sampler, depthBudget int) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)

	for ; depthBudget > 0; depthBudget-- {
		hit, isHit := world.Hit(ray, ShadowEpsilon, math.Inf(1))
		if !isHit {
			return throughput.MultiplyVec(Sky(ray)).Finite()
		}

		scatter, didScatter := world.Material(hit.MaterialID).Scatter(ray, hit, sampler)
		if !didScatter {
			// Emitted light, or black for an absorbed ray
			return throughput.MultiplyVec(scatter.Attenuation).Finite()
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	// Bounce limit reached, no more light is gathered
	return core.Vec3{}
}

// Sky returns the background gradient, white at the horizon blending to light blue overhead
func Sky(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	t := 0.5 * (unitDirection.Y + 1.0)
	return skyHorizon.Multiply(1.0 - t).Add(skyZenith.Multiply(t))
}
