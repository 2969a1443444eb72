package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

const (
	DefaultLevel   = "warn"
	DefaultLogPath = "./logs/zero_sum.log"
)

var (
	mu   sync.Mutex
	root = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           charmlog.WarnLevel,
		Prefix:          "zero_sum",
	})
	state = sinkState{level: DefaultLevel, path: DefaultLogPath}
	file  *os.File
)

// sinkState mirrors the three logging settings that can change at runtime.
type sinkState struct {
	level   string
	useFile bool
	path    string
}

// Configure applies level and file output in one step.
// An empty path keeps the current one.
func Configure(level string, useFile bool, path string) error {
	mu.Lock()
	defer mu.Unlock()
	if path == "" {
		path = state.path
	}
	if err := setLevelLocked(level); err != nil {
		return err
	}
	state.path = path
	state.useFile = useFile
	return applyOutputLocked()
}

// SetLevel changes the minimum level, e.g. "debug", "info", "warn", "error".
func SetLevel(level string) error {
	mu.Lock()
	defer mu.Unlock()
	return setLevelLocked(level)
}

// SetFileLogging turns the file sink on or off.
func SetFileLogging(enabled bool) error {
	mu.Lock()
	defer mu.Unlock()
	if state.useFile == enabled {
		return nil
	}
	state.useFile = enabled
	return applyOutputLocked()
}

// SetLogPath moves the file sink. It is only attached while file logging is enabled.
func SetLogPath(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if path == "" || path == state.path {
		return nil
	}
	state.path = path
	return applyOutputLocked()
}

// SetOutput replaces the console writer. Used by tests and the CLI.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
	_ = applyOutputLocked()
}

var console io.Writer = os.Stderr

func setLevelLocked(level string) error {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	root.SetLevel(lvl)
	state.level = level
	return nil
}

func applyOutputLocked() error {
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if !state.useFile {
		root.SetOutput(console)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(state.path), 0o755); err != nil {
		root.SetOutput(console)
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(state.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		root.SetOutput(console)
		return fmt.Errorf("open log file: %w", err)
	}
	file = f
	root.SetOutput(io.MultiWriter(console, f))
	return nil
}

func Debugf(format string, args ...interface{}) {
	root.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	root.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	root.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	root.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	root.Fatalf(format, args...)
}

// Logger is a named child of the package logger. It always writes through the
// package sink, so runtime reconfiguration reaches every child.
type Logger struct {
	prefix string
}

// WithPrefix returns a child logger whose lines start with "[name]".
func WithPrefix(name string) *Logger {
	return &Logger{prefix: "[" + name + "] "}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	root.Debugf(l.prefix+format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	root.Infof(l.prefix+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	root.Warnf(l.prefix+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	root.Errorf(l.prefix+format, args...)
}
