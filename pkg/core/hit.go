package core

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point       Vec3    // Point of intersection
	Normal      Vec3    // Surface normal, always facing against the incoming ray
	T           float64 // Parameter t along the ray
	FrontFace   bool    // Whether the ray approached from outside
	MaterialID  int     // Index into the scene material table
	PrimitiveID int     // Index of the primitive in the scene
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}
