package main

import (
	"os"

	"github.com/df07/go-progressive-pathtracer/cmd"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("pathtracer")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// flags concatenates flag groups into a fresh slice
func flags(groups ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, group := range groups {
		all = append(all, group...)
	}
	return all
}

func newApp() *cli.App {
	// The default "version, v" flag would shadow the global -v
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "pathtracer"
	app.Usage = "progressive CPU path tracer for sphere scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}

	sceneFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "scene, s",
			Value: "showcase",
			Usage: "preset name (showcase, random, grid, empty) or path to a .json scene file",
		},
		cli.IntFlag{
			Name:  "width",
			Usage: "frame width (0 = scene default)",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "frame height (0 = scene default)",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 42,
			Usage: "seed for random scenes, BVH construction and pixel sampling",
		},
	}

	renderFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "spp",
			Usage: "samples per pixel (0 = scene default)",
		},
		cli.IntFlag{
			Name:  "depth",
			Usage: "maximum bounces after the primary hit (0 = scene default)",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "parallel render workers (0 = logical cores)",
		},
		cli.IntFlag{
			Name:  "tile",
			Value: 64,
			Usage: "tile size in pixels",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene to convergence and save it",
			Description: `
Accumulate one sample per pixel per pass until the samples per pixel target is
reached, then write the image. The format follows the output extension (.png or
.webp). Interrupting the render saves the image accumulated so far.`,
			Flags: flags(sceneFlags, renderFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output image (default output/<scene>/render_<timestamp>.png)",
				},
				cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "integer upscale factor applied before saving",
				},
			}),
			Action: cmd.RenderFrame,
		},
		{
			Name:  "scenes",
			Usage: "list preset scenes and scene files",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir",
					Value: "scenes",
					Usage: "directory searched for .json scene files",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 42,
					Usage: "seed used when building scenes to count primitives",
				},
			},
			Action: cmd.ListScenes,
		},
		{
			Name:   "info",
			Usage:  "describe a scene, its BVH and the host",
			Flags:  sceneFlags,
			Action: cmd.SceneInfo,
		},
		{
			Name:  "serve",
			Usage: "render in the background and serve a live preview over HTTP",
			Flags: flags(sceneFlags, renderFlags, []cli.Flag{
				cli.IntFlag{
					Name:  "port, p",
					Value: 8080,
					Usage: "port to serve on",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "scenes",
					Usage: "directory listed by /api/scenes",
				},
			}),
			Action: cmd.Serve,
		},
	}

	return app
}
