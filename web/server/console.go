package server

import (
	"fmt"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/log"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "notice", "warning", "error"
}

// WebLogger forwards log output to an inner logger and copies it to a console channel
type WebLogger struct {
	inner       log.Logger
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a logger that mirrors everything at info level and above to consoleChan
func NewWebLogger(inner log.Logger, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{inner: inner, consoleChan: consoleChan}
}

// send never blocks; messages are dropped while the channel is full
func (wl *WebLogger) send(level, message string) {
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{Message: message, Timestamp: time.Now(), Level: level}:
	default:
	}
}

func (wl *WebLogger) Debug(v ...interface{}) { wl.inner.Debug(v...) }
func (wl *WebLogger) Debugf(format string, v ...interface{}) {
	wl.inner.Debugf(format, v...)
}

func (wl *WebLogger) Info(v ...interface{}) {
	wl.inner.Info(v...)
	wl.send("info", fmt.Sprint(v...))
}
func (wl *WebLogger) Infof(format string, v ...interface{}) {
	wl.inner.Infof(format, v...)
	wl.send("info", fmt.Sprintf(format, v...))
}

func (wl *WebLogger) Notice(v ...interface{}) {
	wl.inner.Notice(v...)
	wl.send("notice", fmt.Sprint(v...))
}
func (wl *WebLogger) Noticef(format string, v ...interface{}) {
	wl.inner.Noticef(format, v...)
	wl.send("notice", fmt.Sprintf(format, v...))
}

func (wl *WebLogger) Warning(v ...interface{}) {
	wl.inner.Warning(v...)
	wl.send("warning", fmt.Sprint(v...))
}
func (wl *WebLogger) Warningf(format string, v ...interface{}) {
	wl.inner.Warningf(format, v...)
	wl.send("warning", fmt.Sprintf(format, v...))
}

func (wl *WebLogger) Error(v ...interface{}) {
	wl.inner.Error(v...)
	wl.send("error", fmt.Sprint(v...))
}
func (wl *WebLogger) Errorf(format string, v ...interface{}) {
	wl.inner.Errorf(format, v...)
	wl.send("error", fmt.Sprintf(format, v...))
}
