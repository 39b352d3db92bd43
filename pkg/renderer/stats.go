package renderer

import (
	"image"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Pass             int           // Passes completed since the last reset
	TargetSamples    int           // Passes needed to converge
	Width, Height    int           // Resolution of the accumulation buffer
	TotalPixels      int           // Pixels per pass
	TotalSamples     int           // Samples folded in since the last reset
	Workers          int           // Number of parallel workers
	PassTime         time.Duration // Duration of the most recent pass
	TotalTime        time.Duration // Accumulated pass time since the last reset
	AverageLuminance float64       // Mean display luminance after the most recent pass
	Converged        bool
}

// SamplesPerSecond returns the sample throughput across all passes since the last reset
func (s RenderStats) SamplesPerSecond() float64 {
	if s.TotalTime <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.TotalTime.Seconds()
}

// CalculateAverageLuminance computes the mean Rec. 709 luminance of an image, in [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255.0
		}
	}
	return total / float64(pixels)
}
