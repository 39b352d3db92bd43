package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

func newTestServer(t *testing.T, config Config) *Server {
	t.Helper()
	s := scene.New("test-sphere")
	gray := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	if _, err := s.AddSphere(core.NewVec3(0, 0, -1), 0.5, gray); err != nil {
		t.Fatalf("AddSphere: %v", err)
	}
	if err := s.SetCamera(geometry.CameraConfig{
		Origin: core.NewVec3(0, 0, 0),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   60,
		Width:  8,
		Height: 8,
	}); err != nil {
		t.Fatalf("SetCamera: %v", err)
	}
	if err := s.BuildAccelerationStructure(1); err != nil {
		t.Fatalf("Build: %v", err)
	}

	srv, err := NewServer(s, renderer.Config{SamplesPerPixel: 4, MaxBounceDepth: 3, TileSize: 4, NumWorkers: 2}, config, testLogger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func (s *Server) advance(t *testing.T) {
	t.Helper()
	if _, err := s.raytracer.AdvanceSample(context.Background()); err != nil {
		t.Fatalf("AdvanceSample: %v", err)
	}
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var state StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("Decode state %q: %v", rec.Body.String(), err)
	}
	return state
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := do(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}

	rec = do(t, s, http.MethodOptions, "/api/camera", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected preflight 200, got %d", rec.Code)
	}
}

func TestFrameAndState(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	if rec := do(t, s, http.MethodGet, "/api/frame", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first pass, got %d", rec.Code)
	}
	if state := decodeState(t, do(t, s, http.MethodGet, "/api/state", "")); state.State != "empty" || state.Samples != 0 {
		t.Errorf("Expected empty state, got %+v", state)
	}

	s.advance(t)

	rec := do(t, s, http.MethodGet, "/api/frame", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("Expected PNG frame, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("Expected 8x8 frame, got %v", b)
	}

	state := decodeState(t, do(t, s, http.MethodGet, "/api/state", ""))
	if state.State != "accumulating" || state.Samples != 1 || state.Target != 4 || state.Primitives != 1 || state.Scene != "test-sphere" {
		t.Errorf("Unexpected state %+v", state)
	}
}

func TestCamera(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	s.advance(t)
	s.advance(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"move", `{"origin":[0,0,0.5],"lookAt":[0,0,-1]}`, http.StatusOK},
		{"lens", `{"vfov":45,"aperture":0.05}`, http.StatusOK},
		{"fov too wide", `{"vfov":180}`, http.StatusBadRequest},
		{"degenerate pose", `{"origin":[0,0,-1]}`, http.StatusBadRequest},
		{"negative aperture", `{"aperture":-1}`, http.StatusBadRequest},
		{"malformed", `{"vfov":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.scene.Camera().Config()
			rec := do(t, s, http.MethodPost, "/api/camera", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}

			if tt.status != http.StatusOK {
				if s.scene.Camera().Config() != before {
					t.Error("Rejected edit should leave the camera unchanged")
				}
				return
			}

			s.advance(t)
			if samples := s.raytracer.SampleCount(); samples != 1 {
				t.Errorf("Expected a reset to 1 sample, got %d", samples)
			}
		})
	}

	config := s.scene.Camera().Config()
	if config.Origin != core.NewVec3(0, 0, 0.5) || config.VFov != 45 || config.Aperture != 0.05 {
		t.Errorf("Unexpected camera config %+v", config)
	}
}

func TestViewport(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	s.advance(t)

	for _, body := range []string{`{"width":0,"height":8}`, `{"width":8,"height":5000}`} {
		if rec := do(t, s, http.MethodPost, "/api/viewport", body); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", body, rec.Code)
		}
	}

	if rec := do(t, s, http.MethodPost, "/api/viewport", `{"width":12,"height":6}`); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	s.advance(t)

	state := decodeState(t, do(t, s, http.MethodGet, "/api/state", ""))
	if state.Width != 12 || state.Height != 6 || state.Samples != 1 {
		t.Errorf("Expected a fresh 12x6 image, got %+v", state)
	}
}

func TestSamples(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	if rec := do(t, s, http.MethodPost, "/api/samples", `{"samplesPerPixel":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/samples", `{"samplesPerPixel":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	s.advance(t)
	if state := s.raytracer.State(); state != renderer.StateConverged {
		t.Errorf("Expected converged after one sample, got %v", state)
	}
}

func TestInspect(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	var center InspectResponse
	rec := do(t, s, http.MethodGet, "/api/inspect?x=4&y=4", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &center); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("Inspect centre: %d %v", rec.Code, err)
	}
	if !center.Hit || center.Primitive != 0 || center.MaterialType != "lambertian" || center.Radius != 0.5 {
		t.Errorf("Unexpected centre inspection %+v", center)
	}
	if !center.FrontFace || center.Distance <= 0 {
		t.Errorf("Expected a front face hit in front of the camera, got %+v", center)
	}

	var corner InspectResponse
	rec = do(t, s, http.MethodGet, "/api/inspect?x=0&y=0", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &corner); err != nil {
		t.Fatalf("Inspect corner: %v", err)
	}
	if corner.Hit {
		t.Errorf("Corner pixel should see the sky, got %+v", corner)
	}

	for _, target := range []string{"/api/inspect?x=8&y=0", "/api/inspect?x=a&y=0", "/api/inspect?x=0"} {
		if rec := do(t, s, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestInspect_AfterCameraEdit(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	s.advance(t)

	inspect := func(target string) InspectResponse {
		t.Helper()
		rec := do(t, s, http.MethodGet, target, "")
		var resp InspectResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || rec.Code != http.StatusOK {
			t.Fatalf("Inspect %s: %d %s", target, rec.Code, rec.Body.String())
		}
		return resp
	}

	// Turn around before any pass runs; the sphere is now behind the camera
	if rec := do(t, s, http.MethodPost, "/api/camera", `{"lookAt":[0,0,1]}`); rec.Code != http.StatusOK {
		t.Fatalf("Camera edit: %d %s", rec.Code, rec.Body.String())
	}
	if got := inspect("/api/inspect?x=4&y=4"); got.Hit {
		t.Errorf("Expected the centre to see the sky after turning around, got %+v", got)
	}

	// The new viewport bounds are honoured without waiting for a pass
	if rec := do(t, s, http.MethodPost, "/api/camera", `{"lookAt":[0,0,-1]}`); rec.Code != http.StatusOK {
		t.Fatalf("Camera edit: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/viewport", `{"width":16,"height":16}`); rec.Code != http.StatusOK {
		t.Fatalf("Viewport edit: %d", rec.Code)
	}
	if got := inspect("/api/inspect?x=8&y=8"); !got.Hit || got.Primitive != 0 {
		t.Errorf("Expected the sphere at the centre of the resized view, got %+v", got)
	}

	// Updating the camera for an inspection still restarts the accumulation
	s.advance(t)
	if samples := s.raytracer.SampleCount(); samples != 1 {
		t.Errorf("Expected a fresh accumulation after the edits, got %d samples", samples)
	}
}

func TestScenes(t *testing.T) {
	dir := t.TempDir()
	data := `{"name":"Two Balls","description":"test file","materials":[{"name":"m","type":"lambertian","albedo":[0.5,0.5,0.5]}],"spheres":[{"center":[0,0,-1],"radius":0.5,"material":"m"}]}`
	if err := os.WriteFile(filepath.Join(dir, "two-balls.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, Config{ScenesDir: dir})
	rec := do(t, s, http.MethodGet, "/api/scenes", "")

	var scenes []scene.SceneInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &scenes); err != nil {
		t.Fatalf("Decode scenes: %v", err)
	}
	if len(scenes) != len(scene.Names())+1 {
		t.Fatalf("Expected presets plus one file, got %+v", scenes)
	}
	if last := scenes[len(scenes)-1]; last.Type != "json" || last.DisplayName != "Two Balls" {
		t.Errorf("Unexpected file scene %+v", last)
	}
}

func TestStream(t *testing.T) {
	s := newTestServer(t, Config{IdleWait: 10 * time.Millisecond})
	httpServer := httptest.NewServer(s.Handler())
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpServer.URL+"/api/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream, got %q", ct)
	}

	// Read frame events until the image converges
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	event := ""
	lastSamples := 0
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == "frame":
			var update FrameUpdate
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &update); err != nil {
				t.Fatalf("Decode frame: %v", err)
			}
			lastSamples = update.Samples

			pngData, err := base64.StdEncoding.DecodeString(update.ImageData)
			if err != nil {
				t.Fatalf("Decode base64: %v", err)
			}
			if _, err := png.Decode(bytes.NewReader(pngData)); err != nil {
				t.Fatalf("Decode PNG: %v", err)
			}
			if update.State == "converged" {
				cancel()
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	if lastSamples != 4 {
		t.Errorf("Expected the stream to reach 4 samples, got %d", lastSamples)
	}
	if err := <-runDone; err != context.Canceled {
		t.Errorf("Expected Run to stop with context.Canceled, got %v", err)
	}
}
