package integrator

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// World is the read-only view of a scene that light transport needs
type World interface {
	// Hit returns the nearest intersection in the open interval (tMin, tMax)
	Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool)
	// Material resolves a material index from a hit record
	Material(id int) material.Material
}

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// EstimateRadiance returns the radiance arriving along ray, following at most depthBudget segments
	EstimateRadiance(ray core.Ray, world World, sampler core.Sampler, depthBudget int) core.Vec3
}
