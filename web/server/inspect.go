package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/labstack/echo/v4"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Primitive    int                    `json:"primitive"`
	Center       [3]float64             `json:"center"`
	Radius       float64                `json:"radius"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat material.Material) (material.Type, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = triple(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return material.TypeLambertian, properties

	case *material.Metal:
		properties["albedo"] = triple(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["roughness"] = m.Roughness
		return material.TypeMetal, properties

	case *material.Dielectric:
		properties["ior"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return material.TypeDielectric, properties

	case *material.Emissive:
		properties["emission"] = triple(m.Emission())
		properties["color"] = hexColor(m.Color)
		properties["brightness"] = m.Brightness
		return material.TypeEmissive, properties

	default:
		return "unknown", properties
	}
}

// inspectPixel casts an unjittered ray through the centre of a pixel.
// A camera edited since the last pass is brought up to date first, so the ray matches its inputs.
func (s *Server) inspectPixel(x, y int) (core.HitRecord, bool, error) {
	var ray core.Ray
	err := s.raytracer.WithCamera(func(camera *geometry.Camera) error {
		if camera.IsDirty() {
			if err := camera.Update(); err != nil {
				return err
			}
		}
		width, height := camera.Resolution()
		if x < 0 || x >= width || y < 0 || y >= height {
			return fmt.Errorf("pixel (%d, %d) outside %dx%d", x, y, width, height)
		}
		u := (float64(x) + 0.5) / float64(width)
		v := (float64(height-1-y) + 0.5) / float64(height)
		ray = camera.GetRay(u, v, centerSampler{})
		return nil
	})
	if err != nil {
		return core.HitRecord{}, false, err
	}

	hit, isHit := s.scene.Hit(ray, integrator.ShadowEpsilon, math.Inf(1))
	return hit, isHit, nil
}

// handleInspect reports the primitive and material under a pixel
func (s *Server) handleInspect(c echo.Context) error {
	x, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid x coordinate %q", c.QueryParam("x")))
	}
	y, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid y coordinate %q", c.QueryParam("y")))
	}

	hit, isHit, err := s.inspectPixel(x, y)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if !isHit {
		return c.JSON(http.StatusOK, InspectResponse{Hit: false, Primitive: -1})
	}

	mat := s.scene.Material(hit.MaterialID)
	materialType, properties := extractMaterialInfo(mat)
	response := InspectResponse{
		Hit:          true,
		MaterialType: string(materialType),
		Description:  material.Describe(mat),
		Primitive:    hit.PrimitiveID,
		Point:        triple(hit.Point),
		Normal:       triple(hit.Normal),
		Distance:     hit.T,
		FrontFace:    hit.FrontFace,
		Properties:   properties,
	}
	if sphere, ok := s.scene.Sphere(hit.PrimitiveID); ok {
		response.Center = triple(sphere.Center)
		response.Radius = sphere.Radius
	}
	return c.JSON(http.StatusOK, response)
}

// centerSampler puts every lens sample at the centre of the aperture
type centerSampler struct{}

func (centerSampler) Get1D() float64   { return 0.5 }
func (centerSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }
func (centerSampler) Get3D() core.Vec3 { return core.NewVec3(0.5, 0.5, 0.5) }

func triple(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

func hexColor(c core.Vec3) string {
	channel := func(v float64) int { return int(math.Min(math.Max(v, 0), 1) * 255) }
	return fmt.Sprintf("#%02x%02x%02x", channel(c.X), channel(c.Y), channel(c.Z))
}
