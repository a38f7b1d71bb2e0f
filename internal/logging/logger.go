// File: internal/logging/logger.go
// Package logging builds the bridge's slog logger.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func parseLevel(s string) slog.Level {
	if l, ok := levels[s]; ok {
		return l
	}
	return slog.LevelInfo
}

// New builds a logger from cfg. The returned closer flushes and closes the
// rotating file, if any; it is never nil.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	level := parseLevel(cfg.Level)

	var (
		handlers []slog.Handler
		closers  multiCloser
	)
	if cfg.Console {
		handlers = append(handlers, newHandler(os.Stderr, cfg.Format, level))
	}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSizeMB,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAgeDays,
			Compress:   cfg.Rotation.Compress,
		}
		closers = append(closers, lj)
		handlers = append(handlers, newHandler(lj, cfg.Format, level))
	}

	switch len(handlers) {
	case 0:
		return Discard(), closers, nil
	case 1:
		return slog.New(handlers[0]), closers, nil
	default:
		return slog.New(&fanout{handlers: handlers}), closers, nil
	}
}

// NewTo builds a single-sink logger writing to w.
func NewTo(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(newHandler(w, cfg.Format, parseLevel(cfg.Level)))
}

// Discard drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// fanout sends each record to every enabled handler and keeps going on
// error.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
