package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var Log *slog.Logger

// Options configures the global logger. File is optional; when set, records are
// written to stdout and to a rolling log file.
type Options struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func init() {
	// Auto-initialize with safe defaults for tests and development
	// Production code can override by calling Initialize() explicitly
	Initialize("info", false)
}

// Initialize sets up the global logger with the specified level and format
func Initialize(level string, useJSON bool) {
	InitializeWithFile(Options{Level: level, JSON: useJSON})
}

// InitializeWithFile sets up the global logger and, if opts.File is set, tees
// output into a lumberjack-rotated file.
func InitializeWithFile(opts Options) {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    nz(opts.MaxSizeMB, 10),
			MaxBackups: nz(opts.MaxBackups, 3),
			MaxAge:     nz(opts.MaxAgeDays, 7),
			Compress:   opts.Compress,
		})
	}
	Log = slog.New(newHandler(out, opts.Level, opts.JSON))
	slog.SetDefault(Log) // Make it the default for entire program
}

func newHandler(out io.Writer, level string, useJSON bool) slog.Handler {
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}
	if useJSON {
		return slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.NewTextHandler(out, handlerOpts)
}

// parseLevel converts string log level to slog.Level
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Default to Info if invalid level provided
		return slog.LevelInfo
	}
}

func nz(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
