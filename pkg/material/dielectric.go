package material

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Dielectric is clear glass. A ray either reflects or refracts, chosen per sample by Fresnel weight.
type Dielectric struct {
	RefractiveIndex float64 // Relative to the medium outside, e.g. 1.5
}

// NewDielectric creates a dielectric with the given index of refraction
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex}
}

// Scatter reflects under total internal reflection, otherwise reflects with
// probability Reflectance and refracts the rest of the time. Glass absorbs nothing.
func (d *Dielectric) Scatter(rayIn core.Ray, hit core.HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	eta := d.RefractiveIndex
	if hit.FrontFace {
		eta = 1 / eta
	}

	in := rayIn.Direction.Normalize()
	cosI := math.Min(-in.Dot(hit.Normal), 1)

	direction, ok := refract(in, hit.Normal, cosI, eta)
	if !ok || Reflectance(cosI, eta) > sampler.Get1D() {
		direction = reflectVector(in, hit.Normal)
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: core.NewVec3(1, 1, 1),
	}, true
}

// refract bends the unit vector in through a surface with normal n by Snell's law.
// It reports false when eta*sin(theta) exceeds one and no transmitted ray exists.
func refract(in, n core.Vec3, cosI, eta float64) (core.Vec3, bool) {
	sinI := math.Sqrt(math.Max(0, 1-cosI*cosI))
	if eta*sinI > 1 {
		return core.Vec3{}, false
	}

	tangent := in.Add(n.Multiply(cosI)).Multiply(eta)
	normal := n.Multiply(-math.Sqrt(math.Abs(1 - tangent.LengthSquared())))
	return tangent.Add(normal), true
}

// reflectVector mirrors v about n
func reflectVector(v, n core.Vec3) core.Vec3 {
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// Reflectance is Schlick's approximation of the Fresnel reflectance
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := math.Pow((1-refractionRatio)/(1+refractionRatio), 2)
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
