package geometry

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// List is an unaccelerated collection of shapes tested one after another.
// It is the exhaustive reference the BVH is checked against.
type List []Shape

// Hit returns the nearest hit among all shapes, tagged with the shape's index
func (l List) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	var closest core.HitRecord
	hitAnything := false
	closestSoFar := tMax

	for i, shape := range l {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			hit.PrimitiveID = i
			closest = hit
		}
	}

	return closest, hitAnything
}

// BoundingBox returns the union of every shape's box
func (l List) BoundingBox() (core.AABB, bool) {
	if len(l) == 0 {
		return core.AABB{}, false
	}

	var box core.AABB
	for i, shape := range l {
		shapeBox, ok := shape.BoundingBox()
		if !ok {
			return core.AABB{}, false
		}
		if i == 0 {
			box = shapeBox
		} else {
			box = core.SurroundingBox(box, shapeBox)
		}
	}
	return box, true
}
