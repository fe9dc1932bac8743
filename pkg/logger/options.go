package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects the handler behind a logger.
type Format string

const (
	// FormatPretty is the colorized charmbracelet/log handler for terminals.
	FormatPretty Format = "pretty"

	// FormatJSON is slog's JSON handler, one record per line.
	FormatJSON Format = "json"

	// FormatText is slog's logfmt-style text handler.
	FormatText Format = "text"
)

// ParseFormat maps a config value such as server.log_format onto a Format.
// An empty value selects FormatPretty.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPretty, nil
	case FormatPretty, FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want pretty, json or text)", s)
	}
}

// Option configures a logger created with New.
type Option func(*options)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(o *options) {
		if debug {
			o.level = slog.LevelDebug
			return
		}
		o.level = slog.LevelInfo
	}
}

// WithFormat picks the handler. Defaults to FormatText.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithWriter overrides the output writer. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithSource includes file:line in records.
func WithSource(source bool) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithComponent tags every record with component=name.
func WithComponent(name string) Option {
	return func(o *options) {
		o.component = name
	}
}
