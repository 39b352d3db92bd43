package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/labstack/echo/v4"
)

// SSEEvent is one server-sent event
type SSEEvent struct {
	Type string `json:"type"` // "frame", "console", "error"
	Data string `json:"data"` // JSON-encoded payload
}

// FrameUpdate is the payload of a "frame" event
type FrameUpdate struct {
	Samples   int    `json:"samples"`
	Target    int    `json:"target"`
	State     string `json:"state"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
}

// subscriberBuffer is how far a stream client may fall behind before its events are dropped
const subscriberBuffer = 16

// Run drives the renderer until ctx is cancelled, one pass at a time.
// Once the image converges it waits for an edit or IdleWait before polling again.
func (s *Server) Run(ctx context.Context) error {
	go s.streamConsoleMessages(ctx)

	lastSamples := -1
	for {
		ran, err := s.raytracer.AdvanceSample(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, renderer.ErrClosed):
			return err
		case err != nil:
			s.logger.Errorf("pass failed: %v", err)
			s.broadcast(SSEEvent{Type: "error", Data: jsonString(err.Error())})
		}

		// A reset drops the count, so any change means a new frame
		if samples := s.raytracer.SampleCount(); samples != lastSamples {
			lastSamples = samples
			s.publishFrame()
		}
		if ran {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-time.After(s.config.IdleWait):
		}
	}
}

// nudge wakes an idle render loop without blocking
func (s *Server) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// publishFrame encodes the current frame once for all stream clients
func (s *Server) publishFrame() {
	if s.subscriberCount() == 0 || s.raytracer.SampleCount() == 0 {
		return
	}
	event, err := s.frameEvent()
	if err != nil {
		s.logger.Warningf("encode frame: %v", err)
		return
	}
	s.broadcast(event)
}

func (s *Server) frameEvent() (SSEEvent, error) {
	img := s.raytracer.DisplayImage()
	stats := s.raytracer.Stats()

	imageData, err := imageToBase64PNG(img)
	if err != nil {
		return SSEEvent{}, err
	}
	data, err := json.Marshal(FrameUpdate{
		Samples:   stats.Pass,
		Target:    stats.TargetSamples,
		State:     s.raytracer.State().String(),
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		ImageData: imageData,
	})
	if err != nil {
		return SSEEvent{}, err
	}
	return SSEEvent{Type: "frame", Data: string(data)}, nil
}

// streamConsoleMessages forwards renderer log messages to stream clients
func (s *Server) streamConsoleMessages(ctx context.Context) {
	for {
		select {
		case msg := <-s.console:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			s.broadcast(SSEEvent{Type: "console", Data: string(data)})
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) subscribe() chan SSEEvent {
	ch := make(chan SSEEvent, subscriberBuffer)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan SSEEvent) {
	s.subMu.Lock()
	delete(s.subscribers, ch)
	s.subMu.Unlock()
}

func (s *Server) subscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subscribers)
}

// broadcast never blocks; a full subscriber misses the event
func (s *Server) broadcast(event SSEEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// handleStream sends the current frame, then every new frame and console message until the client leaves
func (s *Server) handleStream(c echo.Context) error {
	ctx := c.Request().Context()
	events := s.subscribe()
	defer s.unsubscribe(events)

	resp := c.Response()
	setSSEHeaders(resp)
	resp.WriteHeader(http.StatusOK)

	if first, err := s.frameEvent(); err == nil {
		if err := writeSSEEvent(resp, first); err != nil {
			return nil
		}
	}

	for {
		select {
		case event := <-events:
			if err := writeSSEEvent(resp, event); err != nil {
				// Client disconnected during write
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func writeSSEEvent(resp *echo.Response, event SSEEvent) error {
	if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}

func jsonString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
