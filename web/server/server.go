package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/labstack/echo/v4"
)

// MaxViewportSize bounds each side of a viewport set over HTTP
const MaxViewportSize = 4096

// Config contains the preview server settings
type Config struct {
	ScenesDir string        // Directory listed by /api/scenes
	IdleWait  time.Duration // Render loop poll interval once converged
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		ScenesDir: "scenes",
		IdleWait:  200 * time.Millisecond,
	}
}

// Server exposes a progressive render of one scene over HTTP
type Server struct {
	config    Config
	scene     *scene.Scene
	raytracer *renderer.ProgressiveRaytracer
	logger    log.Logger
	echo      *echo.Echo

	wake    chan struct{} // nudges the render loop after an edit
	console chan ConsoleMessage

	subMu       sync.Mutex
	subscribers map[chan SSEEvent]struct{}
}

// NewServer creates a server and the raytracer for an already built scene.
// Renderer messages at info level and above are mirrored to stream clients.
func NewServer(sceneObj *scene.Scene, renderConfig renderer.Config, config Config, logger log.Logger) (*Server, error) {
	if config.IdleWait <= 0 {
		config.IdleWait = DefaultConfig().IdleWait
	}

	console := make(chan ConsoleMessage, 50)
	raytracer, err := renderer.NewProgressiveRaytracer(sceneObj, renderConfig, NewWebLogger(logger, console))
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      config,
		scene:       sceneObj,
		raytracer:   raytracer,
		logger:      logger,
		echo:        echo.New(),
		wake:        make(chan struct{}, 1),
		console:     console,
		subscribers: make(map[chan SSEEvent]struct{}),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.Use(corsMiddleware)

	s.echo.GET("/api/health", s.handleHealth)
	s.echo.GET("/api/state", s.handleState)
	s.echo.GET("/api/frame", s.handleFrame)
	s.echo.GET("/api/stream", s.handleStream)
	s.echo.GET("/api/scenes", s.handleScenes)
	s.echo.GET("/api/inspect", s.handleInspect)
	s.echo.POST("/api/camera", s.handleCamera)
	s.echo.POST("/api/viewport", s.handleViewport)
	s.echo.POST("/api/samples", s.handleSamples)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Noticef("serving %q on http://localhost%s", s.scene.Name, addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for open ones and releases the renderer
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	s.raytracer.Close()
	return err
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StateResponse describes the render progress
type StateResponse struct {
	Scene            string  `json:"scene"`
	State            string  `json:"state"`
	Samples          int     `json:"samples"`
	Target           int     `json:"target"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Workers          int     `json:"workers"`
	Primitives       int     `json:"primitives"`
	PassMs           int64   `json:"passMs"`
	ElapsedMs        int64   `json:"elapsedMs"`
	AverageLuminance float64 `json:"averageLuminance"`
}

func (s *Server) state() StateResponse {
	stats := s.raytracer.Stats()
	return StateResponse{
		Scene:            s.scene.Name,
		State:            s.raytracer.State().String(),
		Samples:          stats.Pass,
		Target:           stats.TargetSamples,
		Width:            stats.Width,
		Height:           stats.Height,
		Workers:          stats.Workers,
		Primitives:       s.scene.PrimitiveCount(),
		PassMs:           stats.PassTime.Milliseconds(),
		ElapsedMs:        stats.TotalTime.Milliseconds(),
		AverageLuminance: stats.AverageLuminance,
	}
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state())
}

// handleFrame returns the latest display image as PNG
func (s *Server) handleFrame(c echo.Context) error {
	img := s.raytracer.DisplayImage()
	if img.Bounds().Empty() {
		return errorJSON(c, http.StatusServiceUnavailable, errors.New("no frame rendered yet"))
	}

	data, err := encodePNG(img)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

func (s *Server) handleScenes(c echo.Context) error {
	scenes, err := scene.ListAllScenes(s.config.ScenesDir)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, scenes)
}

// CameraRequest changes the camera pose and/or lens. Omitted fields keep their current value.
type CameraRequest struct {
	Origin        *[3]float64 `json:"origin"`
	LookAt        *[3]float64 `json:"lookAt"`
	Up            *[3]float64 `json:"up"`
	VFov          *float64    `json:"vfov"`
	Aperture      *float64    `json:"aperture"`
	FocusDistance *float64    `json:"focusDistance"`
}

func (r CameraRequest) apply(config geometry.CameraConfig) geometry.CameraConfig {
	if r.Origin != nil {
		config.Origin = vec(*r.Origin)
	}
	if r.LookAt != nil {
		config.LookAt = vec(*r.LookAt)
	}
	if r.Up != nil {
		config.Up = vec(*r.Up)
	}
	if r.VFov != nil {
		config.VFov = *r.VFov
	}
	if r.Aperture != nil {
		config.Aperture = *r.Aperture
	}
	if r.FocusDistance != nil {
		config.FocusDistance = *r.FocusDistance
	}
	return config
}

// handleCamera validates the edit against a scratch camera before touching the live one
func (s *Server) handleCamera(c echo.Context) error {
	var req CameraRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	var config geometry.CameraConfig
	err := s.raytracer.WithCamera(func(camera *geometry.Camera) error {
		config = req.apply(camera.Config())
		if _, err := geometry.NewCamera(config); err != nil {
			return err
		}
		camera.SetPose(config.Origin, config.LookAt, config.Up)
		camera.SetLens(config.VFov, config.Aperture, config.FocusDistance)
		return nil
	})
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	s.logger.Infof("camera moved to %v looking at %v", config.Origin, config.LookAt)
	s.nudge()
	return c.JSON(http.StatusOK, cameraResponse(config))
}

// ViewportRequest resizes the rendered image
type ViewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleViewport(c echo.Context) error {
	var req ViewportRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if req.Width < 1 || req.Height < 1 || req.Width > MaxViewportSize || req.Height > MaxViewportSize {
		return errorJSON(c, http.StatusBadRequest,
			fmt.Errorf("viewport %dx%d outside 1..%d: %w", req.Width, req.Height, MaxViewportSize, geometry.ErrInvalidCamera))
	}

	_ = s.raytracer.WithCamera(func(camera *geometry.Camera) error {
		camera.SetViewport(req.Width, req.Height)
		return nil
	})

	s.logger.Infof("viewport resized to %dx%d", req.Width, req.Height)
	s.nudge()
	return c.JSON(http.StatusOK, req)
}

// SamplesRequest changes the convergence target
type SamplesRequest struct {
	SamplesPerPixel int `json:"samplesPerPixel"`
}

func (s *Server) handleSamples(c echo.Context) error {
	var req SamplesRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if err := s.raytracer.SetSamplesPerPixel(req.SamplesPerPixel); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	s.nudge()
	return c.JSON(http.StatusOK, s.state())
}

// CameraResponse echoes the camera inputs after an edit
type CameraResponse struct {
	Origin        [3]float64 `json:"origin"`
	LookAt        [3]float64 `json:"lookAt"`
	Up            [3]float64 `json:"up"`
	VFov          float64    `json:"vfov"`
	Aperture      float64    `json:"aperture"`
	FocusDistance float64    `json:"focusDistance"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
}

func cameraResponse(config geometry.CameraConfig) CameraResponse {
	return CameraResponse{
		Origin:        [3]float64{config.Origin.X, config.Origin.Y, config.Origin.Z},
		LookAt:        [3]float64{config.LookAt.X, config.LookAt.Y, config.LookAt.Z},
		Up:            [3]float64{config.Up.X, config.Up.Y, config.Up.Z},
		VFov:          config.VFov,
		Aperture:      config.Aperture,
		FocusDistance: config.FocusDistance,
		Width:         config.Width,
		Height:        config.Height,
	}
}

// encodePNG converts an image to PNG bytes
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
