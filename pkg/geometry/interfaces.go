package geometry

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Shape interface for objects that can be hit by rays.
// Hit reports the nearest intersection with t in the open interval (tMin, tMax).
// BoundingBox returns false when the shape cannot be bounded.
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool)
	BoundingBox() (core.AABB, bool)
}
