package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/export"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// RenderFrame renders a scene to convergence and writes the image.
// An interrupt stops after the running pass and saves the partial image.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	sceneName := ctx.String("scene")
	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	config := renderConfig(ctx, sc)
	logger.Noticef("rendering %q (%d primitives) at %s, %d spp, depth %d",
		sc.Name, sc.PrimitiveCount(), resolution(sc), config.SamplesPerPixel, config.MaxBounceDepth)

	r, err := renderer.NewProgressiveRaytracer(sc, config, log.New("renderer"))
	if err != nil {
		return err
	}
	defer r.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	passChan, errChan := r.RenderProgressive(runCtx)
	for result := range passChan {
		logger.Infof("pass %d/%d in %v (%.0f samples/s)",
			result.PassNumber, result.Stats.TargetSamples, result.Stats.PassTime, result.Stats.SamplesPerSecond())
	}
	if err := <-errChan; err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warningf("interrupted after %d samples per pixel, saving partial image", r.SampleCount())
	}

	out := ctx.String("out")
	if out == "" {
		out = outputPath(sceneName, time.Now())
	}
	if err := export.Save(out, r.DisplayImage(), ctx.Int("scale")); err != nil {
		return err
	}

	displayRenderStats(r.Stats())
	logger.Noticef("render saved as %s", out)
	return nil
}

// loadScene creates the scene named by --scene and applies the --width/--height overrides
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	sc, err := scene.Create(ctx.String("scene"), ctx.Int64("seed"))
	if err != nil {
		return nil, err
	}

	width, height := sc.Camera().Resolution()
	if w := ctx.Int("width"); w > 0 {
		width = w
	}
	if h := ctx.Int("height"); h > 0 {
		height = h
	}
	sc.Camera().SetViewport(width, height)
	if err := sc.Camera().Update(); err != nil {
		return nil, err
	}
	return sc, nil
}

// renderConfig starts from the scene's sampling config; non-zero flags override it
func renderConfig(ctx *cli.Context, sc *scene.Scene) renderer.Config {
	config := renderer.DefaultConfig()
	config.SamplesPerPixel = sc.SamplingConfig.SamplesPerPixel
	config.MaxBounceDepth = sc.SamplingConfig.MaxBounceDepth
	config.Seed = ctx.Int64("seed")

	if spp := ctx.Int("spp"); spp > 0 {
		config.SamplesPerPixel = spp
	}
	if depth := ctx.Int("depth"); depth > 0 {
		config.MaxBounceDepth = depth
	}
	if tile := ctx.Int("tile"); tile > 0 {
		config.TileSize = tile
	}

	config.NumWorkers = ctx.Int("workers")
	if config.NumWorkers <= 0 {
		config.NumWorkers = defaultWorkers()
	}
	return config
}

// outputPath returns output/<scene>/render_<timestamp>.png; scene files use their base name
func outputPath(sceneName string, now time.Time) string {
	base := sceneName
	if strings.EqualFold(filepath.Ext(sceneName), ".json") {
		base = strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	}
	if base == "" {
		base = "scene"
	}
	return filepath.Join("output", base, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

func resolution(sc *scene.Scene) string {
	width, height := sc.Camera().Resolution()
	return fmt.Sprintf("%dx%d", width, height)
}

func displayRenderStats(stats renderer.RenderStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Resolution", "Samples/pixel", "Workers", "Samples/s", "Avg luminance", "Render time"})
	table.Append([]string{
		fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		fmt.Sprintf("%d/%d", stats.Pass, stats.TargetSamples),
		fmt.Sprintf("%d", stats.Workers),
		fmt.Sprintf("%.0f", stats.SamplesPerSecond()),
		fmt.Sprintf("%.3f", stats.AverageLuminance),
		fmt.Sprintf("%s", stats.TotalTime),
	})
	table.SetFooter([]string{"", "", "", "", "TOTAL SAMPLES", fmt.Sprintf("%d", stats.TotalSamples)})

	table.Render()
	logger.Noticef("render statistics\n%s", buf.String())
}
