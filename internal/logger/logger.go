// Copyright 2020 Aleksandr Demakin. All rights reserved.

// Package logger builds the slog logger of the command line tools.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const timeFormat = "2006/01/02 15:04:05"

// Handler writes records as single lines, like `2020/01/02 15:04:05 INFO: run started cases=10`.
// Every enabled record goes to the file, if there is one. Debug records go to the console
// only in debug mode.
type Handler struct {
	file    io.Writer
	console io.Writer
	level   slog.Leveler
	debug   bool
	attrs   []slog.Attr
	group   string
	mu      *sync.Mutex
}

// NewHandler returns a new handler. file and console may be nil.
func NewHandler(file, console io.Writer, level slog.Leveler, debug bool) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{
		file:    file,
		console: console,
		level:   level,
		debug:   debug,
		mu:      &sync.Mutex{},
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, h.qualified(a))
	}
	return &h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.qualify(name)
	return &h2
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var builder strings.Builder
	if !r.Time.IsZero() {
		builder.WriteString(r.Time.Format(timeFormat))
		builder.WriteByte(' ')
	}
	builder.WriteString(r.Level.String())
	builder.WriteString(": ")
	builder.WriteString(r.Message)
	write := func(a slog.Attr) {
		builder.WriteByte(' ')
		builder.WriteString(a.Key)
		builder.WriteByte('=')
		builder.WriteString(a.Value.String())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(h.qualified(a))
		return true
	})
	builder.WriteByte('\n')
	line := []byte(builder.String())

	h.mu.Lock()
	defer h.mu.Unlock()
	var err error
	if h.file != nil {
		_, err = h.file.Write(line)
	}
	if h.console != nil && (h.debug || r.Level > slog.LevelDebug) {
		if _, cerr := h.console.Write(line); err == nil {
			err = cerr
		}
	}
	return err
}

func (h *Handler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *Handler) qualified(a slog.Attr) slog.Attr {
	a.Key = h.qualify(a.Key)
	return a
}

// New returns a logger, that writes to the file at path, if it is not empty,
// and to console. The returned function closes the file.
func New(path string, debug bool, console io.Writer) (*slog.Logger, func() error, error) {
	var file io.Writer
	closer := func() error { return nil }
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "cannot create log file")
		}
		file, closer = f, f.Close
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	return slog.New(NewHandler(file, console, level, debug)), closer, nil
}
