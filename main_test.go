package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/log"
)

func TestApp_Commands(t *testing.T) {
	app := newApp()

	for _, name := range []string{"render", "scenes", "info", "serve"} {
		if app.Command(name) == nil {
			t.Errorf("Expected command %q", name)
		}
	}

	render := app.Command("render")
	names := map[string]bool{}
	for _, flag := range render.Flags {
		names[flag.GetName()] = true
	}
	for _, name := range []string{"scene, s", "width", "height", "spp", "depth", "workers", "seed", "out, o", "scale", "tile"} {
		if !names[name] {
			t.Errorf("render is missing flag %q", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.Notice) })
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"verbose", []string{"pathtracer", "-v", "scenes", "--dir", dir}},
		{"very verbose", []string{"pathtracer", "-vv", "scenes", "--dir", dir}},
		{"version", []string{"pathtracer", "--version"}},
		{"help", []string{"pathtracer", "--help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := newApp().Run(tt.args); err != nil {
				t.Fatalf("Run(%v) failed: %v", tt.args, err)
			}
		})
	}
}

func TestRender_WritesImage(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		scale  string
		width  int
		height int
	}{
		{"png", "render.png", "1", 4, 3},
		{"scaled png", "nested/render.png", "2", 8, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), tt.file)
			err := newApp().Run([]string{"pathtracer", "render",
				"--scene", "showcase", "--width", "4", "--height", "3",
				"--spp", "2", "--depth", "3", "--workers", "2",
				"--scale", tt.scale, "--out", out})
			if err != nil {
				t.Fatalf("render: %v", err)
			}

			f, err := os.Open(out)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer f.Close()
			config, err := png.DecodeConfig(f)
			if err != nil {
				t.Fatalf("DecodeConfig: %v", err)
			}
			if config.Width != tt.width || config.Height != tt.height {
				t.Errorf("Expected %dx%d, got %dx%d", tt.width, tt.height, config.Width, config.Height)
			}
		})
	}
}

func TestRender_WebP(t *testing.T) {
	out := filepath.Join(t.TempDir(), "render.webp")
	err := newApp().Run([]string{"pathtracer", "render",
		"--scene", "empty", "--width", "4", "--height", "4", "--spp", "1", "--out", out})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("Expected a non-empty webp file, got %v", err)
	}
}

func TestRender_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"unknown scene", []string{"--scene", "nonexistent"}},
		{"missing scene file", []string{"--scene", filepath.Join(dir, "missing.json")}},
		{"unsupported format", []string{"--scene", "empty", "--width", "2", "--height", "2", "--spp", "1", "--out", filepath.Join(dir, "render.gif")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"pathtracer", "render"}, tt.args...)
			if err := newApp().Run(args); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestScenesAndInfo(t *testing.T) {
	dir := t.TempDir()
	data := `{"name":"One Ball","materials":[{"name":"m","type":"metal","albedo":[0.8,0.8,0.8]}],"spheres":[{"center":[0,0,-1],"radius":0.5,"material":"m"}]}`
	path := filepath.Join(dir, "one-ball.json")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if err := newApp().Run([]string{"pathtracer", "scenes", "--dir", dir}); err != nil {
		t.Errorf("scenes: %v", err)
	}
	if err := newApp().Run([]string{"pathtracer", "info", "--scene", path}); err != nil {
		t.Errorf("info: %v", err)
	}
	if err := newApp().Run([]string{"pathtracer", "info", "--scene", "nonexistent"}); err == nil {
		t.Error("info should fail for an unknown scene")
	}
}
