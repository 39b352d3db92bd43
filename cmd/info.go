package cmd

import (
	"bytes"
	"fmt"

	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// SceneInfo prints the primitives, camera and BVH of a scene plus the host it would render on
func SceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(scene.DescribeHeader)
	table.AppendBulk(sc.Describe())
	table.Render()
	logger.Noticef("scene %q: %s\n%s", sc.Name, sc.Description, buf.String())

	camera := sc.Camera().Config()
	buf.Reset()
	table = tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Origin", "Look at", "VFov", "Aperture", "Focus", "Resolution", "Samples/pixel", "Depth"})
	table.Append([]string{
		fmt.Sprintf("(%.2f, %.2f, %.2f)", camera.Origin.X, camera.Origin.Y, camera.Origin.Z),
		fmt.Sprintf("(%.2f, %.2f, %.2f)", camera.LookAt.X, camera.LookAt.Y, camera.LookAt.Z),
		fmt.Sprintf("%.1f", camera.VFov),
		fmt.Sprintf("%.2f", camera.Aperture),
		fmt.Sprintf("%.2f", sc.Camera().FocusDistance()),
		resolution(sc),
		fmt.Sprintf("%d", sc.SamplingConfig.SamplesPerPixel),
		fmt.Sprintf("%d", sc.SamplingConfig.MaxBounceDepth),
	})
	table.Render()
	logger.Noticef("camera\n%s", buf.String())

	stats := sc.BVHStats()
	buf.Reset()
	table = tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Primitives", "Nodes", "Leaf refs", "Max depth"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.Primitives),
		fmt.Sprintf("%d", stats.Nodes),
		fmt.Sprintf("%d", stats.LeafRefs),
		fmt.Sprintf("%d", stats.MaxDepth),
	})
	table.Render()
	logger.Noticef("bvh\n%s", buf.String())

	displayHostInfo(hostInfo())
	return nil
}
