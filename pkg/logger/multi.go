package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout hands each record to every sink that accepts its level. A failing
// sink does not stop delivery to the others.
type fanout []slog.Handler

// Multi returns a logger that writes every record through each of loggers.
// Nil loggers are skipped.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	sinks := make(fanout, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			sinks = append(sinks, l.Handler())
		}
	}
	if len(sinks) == 1 {
		return slog.New(sinks[0])
	}
	return slog.New(sinks)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
