package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// Logger is the leveled logger handed to library packages.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(v ...interface{})
	Info(v ...interface{})
	Notice(v ...interface{})
	Warning(v ...interface{})
	Error(v ...interface{})

	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Noticef(format string, v ...interface{})
	Warningf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Level selects how verbose the process-wide log output is, most verbose first
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = []struct {
	level   Level
	names   []string
	backend logging.Level
}{
	{Debug, []string{"debug"}, logging.DEBUG},
	{Info, []string{"info"}, logging.INFO},
	{Notice, []string{"notice"}, logging.NOTICE},
	{Warning, []string{"warning", "warn"}, logging.WARNING},
	{Error, []string{"error"}, logging.ERROR},
}

var (
	format = logging.MustStringFormatter(
		`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
	)
	backend logging.LeveledBackend
	current = Notice
)

// New returns a logger tagged with a module name such as "renderer"
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// SetSink sends all log output to sink. The level set by SetLevel is kept.
func SetSink(sink io.Writer) {
	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	backend = logging.AddModuleLevel(formatted)
	logging.SetBackend(backend)
	SetLevel(current)
}

// SetLevel sets the verbosity of every module
func SetLevel(level Level) {
	current = level
	for _, l := range levels {
		if l.level == level {
			backend.SetLevel(l.backend, "")
			return
		}
	}
	backend.SetLevel(logging.NOTICE, "")
}

// ParseLevel maps a name such as "debug" or "warn" to a Level, ignoring case
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(name)
	for _, l := range levels {
		for _, n := range l.names {
			if n == name {
				return l.level, nil
			}
		}
	}
	return Notice, fmt.Errorf("unknown log level %q", name)
}

func init() {
	SetSink(os.Stdout)
}
