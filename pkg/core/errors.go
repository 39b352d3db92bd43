package core

import "errors"

var (
	// ErrDegenerateGeometry is returned for primitives that cannot be intersected,
	// such as spheres with a zero, negative or non-finite radius.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrNoBoundingBox is returned when a primitive cannot produce a bounding box
	// during acceleration structure construction.
	ErrNoBoundingBox = errors.New("primitive has no bounding box")

	// ErrInvalidMaterial is returned when a material index is outside the material table.
	ErrInvalidMaterial = errors.New("invalid material index")
)
