package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// ErrInvalidCamera is returned when the camera parameters cannot produce a valid view
var ErrInvalidCamera = errors.New("invalid camera")

// CameraConfig contains all parameters needed to create a camera
type CameraConfig struct {
	Origin        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually (0,1,0))
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter (0 = pinhole, no depth of field)
	FocusDistance float64   // Distance to the focus plane (<= 0 = distance to LookAt)
	Width         int       // Image width in pixels
	Height        int       // Image height in pixels
}

// Camera generates rays for rendering with optional depth of field.
// Setters only record new inputs, mark the camera dirty and bump its version;
// derived state changes only when Update is called.
type Camera struct {
	config  CameraConfig
	dirty   bool
	version uint64

	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3
	lensRadius      float64
}

// NewCamera creates a camera and computes its derived state
func NewCamera(config CameraConfig) (*Camera, error) {
	camera := &Camera{config: config}
	if err := camera.Update(); err != nil {
		return nil, err
	}
	return camera, nil
}

// SetPose changes the camera position and orientation
func (c *Camera) SetPose(origin, lookAt, up core.Vec3) {
	c.config.Origin = origin
	c.config.LookAt = lookAt
	c.config.Up = up
	c.touch()
}

// SetLens changes the field of view and depth of field parameters
func (c *Camera) SetLens(vfov, aperture, focusDistance float64) {
	c.config.VFov = vfov
	c.config.Aperture = aperture
	c.config.FocusDistance = focusDistance
	c.touch()
}

// SetViewport changes the output resolution
func (c *Camera) SetViewport(width, height int) {
	c.config.Width = width
	c.config.Height = height
	c.touch()
}

func (c *Camera) touch() {
	c.dirty = true
	c.version++
}

// IsDirty reports whether inputs changed since the last Update
func (c *Camera) IsDirty() bool {
	return c.dirty
}

// Version increases with every setter call. Unlike IsDirty it is not cleared by Update.
func (c *Camera) Version() uint64 {
	return c.version
}

// Config returns the current camera inputs
func (c *Camera) Config() CameraConfig {
	return c.config
}

// Resolution returns the configured image size
func (c *Camera) Resolution() (width, height int) {
	return c.config.Width, c.config.Height
}

// FocusDistance returns the effective focus distance
func (c *Camera) FocusDistance() float64 {
	if c.config.FocusDistance > 0 {
		return c.config.FocusDistance
	}
	return c.config.Origin.Subtract(c.config.LookAt).Length()
}

// Update recomputes the basis and viewport from the current inputs.
// On error the previous derived state is kept and the camera stays dirty.
func (c *Camera) Update() error {
	cfg := c.config
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("viewport %dx%d: %w", cfg.Width, cfg.Height, ErrInvalidCamera)
	}
	if !(cfg.VFov > 0 && cfg.VFov < 180) {
		return fmt.Errorf("vertical fov %v: %w", cfg.VFov, ErrInvalidCamera)
	}
	if cfg.Aperture < 0 {
		return fmt.Errorf("aperture %v: %w", cfg.Aperture, ErrInvalidCamera)
	}

	w := cfg.Origin.Subtract(cfg.LookAt).Normalize()
	u := cfg.Up.Cross(w).Normalize()
	if w.NearZero() || u.NearZero() {
		return fmt.Errorf("degenerate pose origin=%v lookAt=%v up=%v: %w", cfg.Origin, cfg.LookAt, cfg.Up, ErrInvalidCamera)
	}
	v := w.Cross(u)

	theta := cfg.VFov * math.Pi / 180.0
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h
	viewportWidth := viewportHeight * float64(cfg.Width) / float64(cfg.Height)
	focus := c.FocusDistance()

	c.origin = cfg.Origin
	c.u, c.v, c.w = u, v, w
	c.horizontal = u.Multiply(viewportWidth * focus)
	c.vertical = v.Multiply(viewportHeight * focus)
	c.lowerLeftCorner = c.origin.
		Subtract(c.horizontal.Multiply(0.5)).
		Subtract(c.vertical.Multiply(0.5)).
		Subtract(w.Multiply(focus))
	c.lensRadius = cfg.Aperture / 2
	c.dirty = false

	return nil
}

// GetRay generates a ray for viewport coordinates (s, t) where 0 <= s,t <= 1.
// (0,0) is the lower-left corner of the view.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	var offset core.Vec3
	if c.lensRadius > 0 {
		rd := core.SamplePointInUnitDisk(sampler.Get2D()).Multiply(c.lensRadius)
		offset = c.u.Multiply(rd.X).Add(c.v.Multiply(rd.Y))
	}

	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(c.origin).
		Subtract(offset)

	return core.NewRay(c.origin.Add(offset), direction)
}
