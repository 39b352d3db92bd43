package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
)

var (
	// ErrSceneNotBuilt is returned when rendering a scene without a current acceleration structure
	ErrSceneNotBuilt = errors.New("scene acceleration structure not built")
	// ErrInvalidConfig is returned for unusable renderer settings
	ErrInvalidConfig = errors.New("invalid render config")
	// ErrClosed is returned when rendering after Close
	ErrClosed = errors.New("renderer closed")
)

// Scene is what the renderer needs from a scene
type Scene interface {
	integrator.World
	IsBuilt() bool
	Generation() uint64
	Camera() *geometry.Camera
}

// Config contains configuration for progressive rendering
type Config struct {
	SamplesPerPixel int                           // Passes until the image converges
	MaxBounceDepth  int                           // Scatter events after the primary hit
	TileSize        int                           // Size of each tile (64x64 when <= 0)
	NumWorkers      int                           // Number of parallel workers (0 = use CPU count)
	Seed            int64                         // Base seed for the per-tile samplers
	NewSampler      func(seed int64) core.Sampler // Sampler factory (nil = math/rand backed)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		SamplesPerPixel: 100,
		MaxBounceDepth:  50,
		TileSize:        64,
		NumWorkers:      0, // Auto-detect CPU count
	}
}

func (c Config) validate() error {
	if c.SamplesPerPixel < 1 {
		return fmt.Errorf("samples per pixel %d: %w", c.SamplesPerPixel, ErrInvalidConfig)
	}
	if c.MaxBounceDepth < 0 {
		return fmt.Errorf("max bounce depth %d: %w", c.MaxBounceDepth, ErrInvalidConfig)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("workers %d: %w", c.NumWorkers, ErrInvalidConfig)
	}
	return nil
}

// ProgressiveRaytracer refines an image one sample per pixel per pass
type ProgressiveRaytracer struct {
	scene      Scene
	config     Config
	integrator integrator.Integrator
	workerPool *WorkerPool
	logger     log.Logger

	// mu serializes passes and camera edits
	mu         sync.Mutex
	buffer     *AccumulationBuffer
	tiles      []*Tile
	generation uint64
	camera     *geometry.Camera // camera and version the accumulation was started for
	camVersion uint64
	stale      bool // a pass failed or the camera was rejected; the next pass starts over
	closed     bool
	totalTime  time.Duration

	// snapshot of the most recent pass, readable while the next pass runs
	snapMu sync.RWMutex
	image  *image.RGBA
	stats  RenderStats
}

// NewProgressiveRaytracer creates a renderer for a scene and starts its worker pool
func NewProgressiveRaytracer(scene Scene, config Config, logger log.Logger) (*ProgressiveRaytracer, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.TileSize <= 0 {
		config.TileSize = 64
	}
	if config.NewSampler == nil {
		config.NewSampler = defaultSampler
	}

	workerPool := NewWorkerPool(config.NumWorkers)
	workerPool.Start()

	pr := &ProgressiveRaytracer{
		scene:      scene,
		config:     config,
		integrator: integrator.NewPathTracingIntegrator(),
		workerPool: workerPool,
		logger:     logger,
		buffer:     NewAccumulationBuffer(0, 0, config.SamplesPerPixel),
		image:      image.NewRGBA(image.Rect(0, 0, 0, 0)),
	}
	pr.stats = pr.currentStats(0, 0)
	return pr, nil
}

// AdvanceSample runs one pass if the image has not converged.
// It reports whether a pass ran. A pass that has started always completes.
func (pr *ProgressiveRaytracer) AdvanceSample(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.closed {
		return false, ErrClosed
	}
	if !pr.scene.IsBuilt() {
		return false, ErrSceneNotBuilt
	}

	camera := pr.scene.Camera()
	width, height := camera.Resolution()
	bufferWidth, bufferHeight := pr.buffer.Resolution()
	cameraChanged := camera != pr.camera || camera.Version() != pr.camVersion || camera.IsDirty()
	if pr.stale || cameraChanged || width != bufferWidth || height != bufferHeight || pr.generation != pr.scene.Generation() {
		if err := camera.Update(); err != nil {
			// Samples of the previous view no longer match the camera inputs
			pr.buffer.Reset(bufferWidth, bufferHeight)
			pr.stale = true
			pr.totalTime = 0
			pr.publish(0)
			return false, err
		}
		pr.reset(camera, width, height)
	}

	if !pr.buffer.BeginPass() {
		return false, nil
	}

	start := time.Now()
	if err := pr.renderPass(camera); err != nil {
		pr.stale = true
		return false, err
	}
	pr.buffer.EndPass()
	passTime := time.Since(start)
	pr.totalTime += passTime

	pr.publish(passTime)
	if pr.buffer.State() == StateConverged {
		pr.logger.Noticef("converged at %d samples per pixel in %v", pr.buffer.SampleCount(), pr.totalTime)
	}
	return true, nil
}

// reset clears the accumulation for a new view and reseeds every tile
func (pr *ProgressiveRaytracer) reset(camera *geometry.Camera, width, height int) {
	pr.buffer.Reset(width, height)
	pr.camera = camera
	pr.camVersion = camera.Version()
	pr.tiles = NewTileGrid(width, height, pr.config.TileSize, pr.config.Seed, pr.config.NewSampler)
	pr.generation = pr.scene.Generation()
	pr.stale = false
	pr.totalTime = 0
	pr.publish(0)

	pr.logger.Infof("accumulation reset: %dx%d, %d tiles, %d workers", width, height, len(pr.tiles), pr.workerPool.NumWorkers())
}

// renderPass adds one sample to every pixel, fanning out one task per tile
func (pr *ProgressiveRaytracer) renderPass(camera *geometry.Camera) error {
	width, height := pr.buffer.Resolution()
	p := &pass{
		camera:      camera,
		world:       pr.scene,
		integrator:  pr.integrator,
		buffer:      pr.buffer,
		width:       width,
		height:      height,
		depthBudget: pr.config.MaxBounceDepth + 1,
	}
	passNumber := pr.buffer.SampleCount()

	go func() {
		for i, tile := range pr.tiles {
			pr.workerPool.SubmitTask(TileTask{Tile: tile, PassNumber: passNumber, TaskID: i, Pass: p})
		}
	}()

	var firstErr error
	for range pr.tiles {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}
		pr.tiles[result.TaskID].PassesCompleted++
	}

	pr.logger.Debugf("pass %d: %d tiles done", passNumber, len(pr.tiles))
	return firstErr
}

// publish snapshots the display image and statistics for concurrent readers
func (pr *ProgressiveRaytracer) publish(passTime time.Duration) {
	img := pr.buffer.DisplayImage()
	stats := pr.currentStats(passTime, CalculateAverageLuminance(img))

	pr.snapMu.Lock()
	pr.image = img
	pr.stats = stats
	pr.snapMu.Unlock()
}

func (pr *ProgressiveRaytracer) currentStats(passTime time.Duration, luminance float64) RenderStats {
	width, height := pr.buffer.Resolution()
	return RenderStats{
		Pass:             pr.buffer.SampleCount(),
		TargetSamples:    pr.buffer.Target(),
		Width:            width,
		Height:           height,
		TotalPixels:      width * height,
		TotalSamples:     width * height * pr.buffer.SampleCount(),
		Workers:          pr.workerPool.NumWorkers(),
		PassTime:         passTime,
		TotalTime:        pr.totalTime,
		AverageLuminance: luminance,
		Converged:        pr.buffer.State() == StateConverged,
	}
}

// DisplayImage returns a copy of the image after the most recent pass
func (pr *ProgressiveRaytracer) DisplayImage() *image.RGBA {
	pr.snapMu.RLock()
	defer pr.snapMu.RUnlock()

	img := image.NewRGBA(pr.image.Rect)
	copy(img.Pix, pr.image.Pix)
	return img
}

// State returns the accumulation state after the most recent pass
func (pr *ProgressiveRaytracer) State() BufferState {
	stats := pr.Stats()
	switch {
	case stats.Converged:
		return StateConverged
	case stats.Pass > 0:
		return StateAccumulating
	default:
		return StateEmpty
	}
}

// SampleCount returns the number of samples per pixel after the most recent pass
func (pr *ProgressiveRaytracer) SampleCount() int {
	return pr.Stats().Pass
}

// Stats returns statistics of the most recent pass
func (pr *ProgressiveRaytracer) Stats() RenderStats {
	pr.snapMu.RLock()
	defer pr.snapMu.RUnlock()
	return pr.stats
}

// SetSamplesPerPixel changes the convergence target without discarding accumulated samples
func (pr *ProgressiveRaytracer) SetSamplesPerPixel(samples int) error {
	if samples < 1 {
		return fmt.Errorf("samples per pixel %d: %w", samples, ErrInvalidConfig)
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.config.SamplesPerPixel = samples
	pr.buffer.SetTarget(samples)
	pr.publish(pr.stats.PassTime)
	return nil
}

// WithCamera runs fn against the scene camera between passes.
// Any camera setter call resets the accumulation on the next pass, whether or not fn also calls Update.
func (pr *ProgressiveRaytracer) WithCamera(fn func(camera *geometry.Camera) error) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return fn(pr.scene.Camera())
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// RenderProgressive runs passes until the image converges, emitting a result after each one.
// Both channels are closed when rendering stops; at most one error is sent.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		for {
			ran, err := pr.AdvanceSample(ctx)
			if err != nil {
				errChan <- err
				return
			}

			stats := pr.Stats()
			result := PassResult{
				PassNumber: stats.Pass,
				Image:      pr.DisplayImage(),
				Stats:      stats,
				IsLast:     stats.Converged,
			}

			// Already converged: report the final image once
			if !ran {
				result.IsLast = true
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if result.IsLast {
				return
			}
		}
	}()

	return passChan, errChan
}

// Close waits for any running pass and stops the worker pool.
// The renderer cannot be used afterwards.
func (pr *ProgressiveRaytracer) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.closed = true
	pr.workerPool.Stop()
}

// pass is the read-only state shared by all tiles of one pass
type pass struct {
	camera        *geometry.Camera
	world         integrator.World
	integrator    integrator.Integrator
	buffer        *AccumulationBuffer
	width, height int
	depthBudget   int
}

// renderTile adds one jittered sample to every pixel of the tile.
// Image row 0 is the top of the view, so t runs opposite to y.
func (p *pass) renderTile(tile *Tile) int {
	bounds := tile.Bounds
	sampler := tile.Sampler
	w, h := float64(p.width), float64(p.height)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			jitter := sampler.Get2D()
			s := (float64(x) + jitter.X) / w
			t := (float64(p.height-1-y) + jitter.Y) / h

			ray := p.camera.GetRay(s, t, sampler)
			color := p.integrator.EstimateRadiance(ray, p.world, sampler, p.depthBudget)
			p.buffer.AddSample(x, y, color)
		}
	}

	return bounds.Dx() * bounds.Dy()
}
