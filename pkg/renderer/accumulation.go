package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// BufferState tracks progress of the running average
type BufferState int

const (
	StateEmpty        BufferState = iota // No samples since the last reset
	StateAccumulating                    // At least one pass, target not yet reached
	StateConverged                       // Target reached; no further passes run
)

func (s BufferState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateConverged:
		return "converged"
	default:
		return "unknown"
	}
}

// AccumulationBuffer holds a per-pixel running sum of radiance.
// Every pixel receives exactly one sample per pass, so a single count serves the whole image.
type AccumulationBuffer struct {
	width, height int
	sums          []core.Vec3
	count         int
	target        int
	state         BufferState
}

// NewAccumulationBuffer creates an empty buffer that converges after target passes
func NewAccumulationBuffer(width, height, target int) *AccumulationBuffer {
	b := &AccumulationBuffer{target: target}
	b.Reset(width, height)
	return b
}

// Reset clears all sums and returns to the empty state, resizing if needed
func (b *AccumulationBuffer) Reset(width, height int) {
	if width != b.width || height != b.height || b.sums == nil {
		b.width, b.height = width, height
		b.sums = make([]core.Vec3, width*height)
	} else {
		clear(b.sums)
	}
	b.count = 0
	b.state = StateEmpty
}

// BeginPass starts a new pass. It returns false once the buffer has converged.
func (b *AccumulationBuffer) BeginPass() bool {
	if b.state == StateConverged {
		return false
	}
	b.state = StateAccumulating
	b.count++
	return true
}

// AddSample folds one radiance sample into a pixel. Non-finite components are dropped.
// Distinct pixels may be written concurrently.
func (b *AccumulationBuffer) AddSample(x, y int, c core.Vec3) {
	i := y*b.width + x
	b.sums[i] = b.sums[i].Add(c.Finite())
}

// EndPass finishes a pass, converging once the target is reached
func (b *AccumulationBuffer) EndPass() {
	if b.state == StateAccumulating && b.count >= b.target {
		b.state = StateConverged
	}
}

// Average returns the mean radiance of a pixel, black before the first pass
func (b *AccumulationBuffer) Average(x, y int) core.Vec3 {
	if b.count == 0 {
		return core.Vec3{}
	}
	return b.sums[y*b.width+x].Multiply(1.0 / float64(b.count))
}

// DisplayImage converts the running average to 8-bit sRGB-ish pixels using gamma 2
func (b *AccumulationBuffer) DisplayImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			img.SetRGBA(x, y, toDisplayColor(b.Average(x, y)))
		}
	}
	return img
}

func toDisplayColor(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: displayChannel(c.X),
		G: displayChannel(c.Y),
		B: displayChannel(c.Z),
		A: 255,
	}
}

func displayChannel(v float64) uint8 {
	return uint8(math.Min(math.Sqrt(math.Max(v, 0)), 0.999) * 256)
}

// State returns the current buffer state
func (b *AccumulationBuffer) State() BufferState {
	return b.state
}

// SampleCount returns the number of passes folded in since the last reset
func (b *AccumulationBuffer) SampleCount() int {
	return b.count
}

// Target returns the number of passes after which the buffer converges
func (b *AccumulationBuffer) Target() int {
	return b.target
}

// SetTarget changes the convergence target. Raising it past the current count resumes accumulation.
func (b *AccumulationBuffer) SetTarget(target int) {
	b.target = target
	switch {
	case b.count == 0:
		b.state = StateEmpty
	case b.count >= target:
		b.state = StateConverged
	default:
		b.state = StateAccumulating
	}
}

// Resolution returns the buffer size in pixels
func (b *AccumulationBuffer) Resolution() (width, height int) {
	return b.width, b.height
}
