// Package logger builds the *slog.Logger every huddle component logs through.
//
// The handler is chosen at construction: charmbracelet/log for terminals,
// slog's JSON handler for log files and collectors, or slog's text handler.
// The serve command tees terminal output into a JSON log file with Multi.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
)

type options struct {
	level     slog.Level
	format    Format
	source    bool
	writer    io.Writer
	component string
}

// New builds a *slog.Logger from the given options.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatText,
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.writer == nil {
		o.writer = os.Stdout
	}

	l := slog.New(o.handler())
	if o.component != "" {
		l = l.With("component", o.component)
	}
	return l
}

func (o *options) handler() slog.Handler {
	switch o.format {
	case FormatPretty:
		level := charmlog.InfoLevel
		if o.level <= slog.LevelDebug {
			level = charmlog.DebugLevel
		}
		return charmlog.NewWithOptions(o.writer, charmlog.Options{
			Level:           level,
			ReportTimestamp: true,
			ReportCaller:    o.source,
		})
	case FormatJSON:
		return slog.NewJSONHandler(o.writer, &slog.HandlerOptions{Level: o.level, AddSource: o.source})
	default:
		return slog.NewTextHandler(o.writer, &slog.HandlerOptions{Level: o.level, AddSource: o.source})
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// File opens path for appending, creating parent directories, and returns a
// JSON logger writing to it. The caller closes the returned file.
func File(path string, opts ...Option) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	opts = append(opts, WithFormat(FormatJSON), WithWriter(f))
	return New(opts...), f, nil
}
