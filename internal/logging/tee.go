package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler forwards each record to every sink that accepts its level. The
// console and the run log filter at different levels, so Enabled is the union.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) derive(fn func(slog.Handler) slog.Handler) teeHandler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

// TeeLogger returns a logger writing to base's handler and to each extra
// handler. Nil handlers are skipped.
func TeeLogger(base *slog.Logger, extra ...slog.Handler) *slog.Logger {
	var sinks teeHandler
	if base != nil {
		sinks = append(sinks, base.Handler())
	}
	for _, h := range extra {
		if h != nil {
			sinks = append(sinks, h)
		}
	}
	switch len(sinks) {
	case 0:
		return NewNop()
	case 1:
		return slog.New(sinks[0])
	}
	return slog.New(sinks)
}
